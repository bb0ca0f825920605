package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/rendis/dishtap/internal/model"
)

const (
	DefaultGeocodeXYZURL = "https://geocode.xyz"
	DefaultNominatimURL  = "https://nominatim.openstreetmap.org"
	DefaultTimeout       = 10 * time.Second
	defaultUserAgent     = "dishtap/0.1 (dish search scanner)"
)

// ErrNotFound is returned when a lookup succeeds but matches nothing.
var ErrNotFound = errors.New("location not found")

// GeocoderOptions configures a Geocoder. Zero values fall back to defaults.
type GeocoderOptions struct {
	ForwardURL string // geocode.xyz base
	ReverseURL string // Nominatim base
	UserAgent  string
	Timeout    time.Duration
}

// Geocoder resolves place names to coordinates and back.
type Geocoder struct {
	http       *http.Client
	forwardURL string
	reverseURL string
	userAgent  string
}

func NewGeocoder(opts GeocoderOptions) *Geocoder {
	if opts.ForwardURL == "" {
		opts.ForwardURL = DefaultGeocodeXYZURL
	}
	if opts.ReverseURL == "" {
		opts.ReverseURL = DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Geocoder{
		http:       &http.Client{Timeout: opts.Timeout},
		forwardURL: strings.TrimRight(opts.ForwardURL, "/"),
		reverseURL: strings.TrimRight(opts.ReverseURL, "/"),
		userAgent:  opts.UserAgent,
	}
}

type xyzResult struct {
	Latt  string `json:"latt"`
	Longt string `json:"longt"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Forward resolves a free-text place name through geocode.xyz. The returned
// coordinates are the strings the service sent, ready for a location table.
func (g *Geocoder) Forward(ctx context.Context, place string) (model.Location, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return model.Location{}, fmt.Errorf("empty place name")
	}
	u := g.forwardURL + "/" + url.PathEscape(place) + "?json=1"

	var res xyzResult
	if err := g.getJSON(ctx, u, &res); err != nil {
		return model.Location{}, err
	}
	if res.Error != nil {
		return model.Location{}, fmt.Errorf("%w: %s", ErrNotFound, res.Error.Description)
	}
	if res.Latt == "" || res.Longt == "" {
		return model.Location{}, ErrNotFound
	}
	loc := model.Location{Lat: res.Latt, Lng: res.Longt}
	if _, ok := loc.Point(); !ok {
		return model.Location{}, fmt.Errorf("geocoder returned invalid coordinates %q", loc.String())
	}
	return loc, nil
}

type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse returns a display address for loc using Nominatim.
func (g *Geocoder) Reverse(ctx context.Context, loc model.Location) (string, error) {
	if _, ok := loc.Point(); !ok {
		return "", fmt.Errorf("invalid coordinates %q", loc.String())
	}
	u := g.reverseURL + "/reverse?" + url.Values{
		"lat":    {strings.TrimSpace(loc.Lat)},
		"lon":    {strings.TrimSpace(loc.Lng)},
		"format": {"json"},
	}.Encode()

	var res nominatimReverse
	if err := g.getJSON(ctx, u, &res); err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, res.Error)
	}
	if res.DisplayName == "" {
		return "", ErrNotFound
	}
	return res.DisplayName, nil
}

type nominatimResult struct {
	BoundingBox []string `json:"boundingbox"` // [minLat, maxLat, minLng, maxLng]
	DisplayName string   `json:"display_name"`
}

// Region returns the bounding box for a region within a country
// using the Nominatim search API.
func (g *Geocoder) Region(ctx context.Context, region, country string) (orb.Bound, error) {
	q := region
	if country != "" {
		q = region + ", " + country
	}

	u := g.reverseURL + "/search?" + url.Values{
		"q":      {q},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	var results []nominatimResult
	if err := g.getJSON(ctx, u, &results); err != nil {
		return orb.Bound{}, err
	}
	if len(results) == 0 {
		return orb.Bound{}, fmt.Errorf("%w: region %q", ErrNotFound, q)
	}

	bb := results[0].BoundingBox
	if len(bb) < 4 {
		return orb.Bound{}, fmt.Errorf("invalid bounding box from geocoder")
	}

	// Nominatim returns [minLat, maxLat, minLng, maxLng] as strings
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(bb[i], 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bounding box value %q", bb[i])
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[2], v[0]}, Max: orb.Point{v[3], v[1]}}, nil
}

func (g *Geocoder) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding geocoding response: %w", err)
	}
	return nil
}
