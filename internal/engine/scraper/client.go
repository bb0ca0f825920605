package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/time/rate"

	"github.com/rendis/dishtap/internal/model"
)

const (
	DefaultEndpoint  = "https://www.swiggy.com/dapi/restaurants/search/v3"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

// StatusError is returned for any non-200 search response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// ClientOptions configures a search client. Zero values fall back to defaults.
type ClientOptions struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	ProxyURL  string
	RPS       float64 // 0 = no pacing
}

type Client struct {
	http      *http.Client
	endpoint  string
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(opts ClientOptions) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome fingerprint, pinned to HTTP/1.1 so net/http can speak to it
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	if opts.ProxyURL != "" {
		if proxyParsed, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyParsed)
			// The proxy terminates the connection; use standard TLS.
			transport.DialTLSContext = nil
			transport.TLSClientConfig = &tls.Config{}
		}
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// SearchURL builds the dish search URL for one (query, location) pair.
// Coordinates are trimmed and used as-is; spaces in the query become %20.
func SearchURL(endpoint string, loc model.Location, query string) string {
	str := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(query)), "+", "%20")
	return endpoint +
		"?lat=" + strings.TrimSpace(loc.Lat) +
		"&lng=" + strings.TrimSpace(loc.Lng) +
		"&str=" + str +
		"&trackingId=undefined&submitAction=ENTER"
}

// Search issues a single GET for query at loc and returns the raw JSON body.
// There is no retry: a non-200 response is reported as *StatusError.
func (c *Client) Search(ctx context.Context, loc model.Location, query string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, SearchURL(c.endpoint, loc, query), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
