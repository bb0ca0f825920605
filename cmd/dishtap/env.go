package main

import (
	"context"
	"flag"

	"github.com/rendis/dishtap/internal/config"
	"github.com/rendis/dishtap/internal/engine/geo"
	"github.com/rendis/dishtap/internal/engine/scraper"
	"github.com/rendis/dishtap/internal/engine/upload"
)

// setFlags returns the names of flags given on the command line, so they
// can override config values without clobbering them with flag defaults.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func clientOptions(cfg *config.Config) scraper.ClientOptions {
	return scraper.ClientOptions{
		Endpoint:  cfg.Scraper.Endpoint,
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.Scraper.Timeout,
		ProxyURL:  cfg.Scraper.ProxyURL,
		RPS:       cfg.Scraper.RPS,
	}
}

func newGeocoder(cfg *config.Config) *geo.Geocoder {
	return geo.NewGeocoder(geo.GeocoderOptions{
		ForwardURL: cfg.Geocode.ForwardURL,
		ReverseURL: cfg.Geocode.ReverseURL,
		Timeout:    cfg.Geocode.Timeout,
	})
}

func uploadConfig(cfg *config.Config) upload.Config {
	return upload.Config{
		Backend:          cfg.Upload.Backend,
		DriveCredentials: cfg.Upload.Drive.CredentialsFile,
		DriveFolderID:    cfg.Upload.Drive.FolderID,
		S3Bucket:         cfg.Upload.S3.Bucket,
		S3Prefix:         cfg.Upload.S3.Prefix,
		S3Region:         cfg.Upload.S3.Region,
	}
}

func newUploader(cfg *config.Config) func(ctx context.Context) (upload.Uploader, error) {
	uc := uploadConfig(cfg)
	return func(ctx context.Context) (upload.Uploader, error) {
		return upload.New(ctx, uc)
	}
}
