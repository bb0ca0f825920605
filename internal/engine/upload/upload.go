// Package upload copies a finished workbook to cloud storage.
package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader sends one local file to a remote store and returns its remote id.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
	Name() string
}

// Config selects and configures a backend. An empty Backend disables upload.
type Config struct {
	Backend string // "", "none", "drive" or "s3"

	DriveCredentials string // service account JSON file
	DriveFolderID    string

	S3Bucket string
	S3Prefix string
	S3Region string
}

// New builds the configured uploader. It returns nil when upload is disabled.
func New(ctx context.Context, cfg Config) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "drive", "gdrive":
		if cfg.DriveCredentials == "" {
			return nil, fmt.Errorf("drive upload needs a credentials file")
		}
		return NewDrive(ctx, cfg.DriveCredentials, cfg.DriveFolderID)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 upload needs a bucket")
		}
		return NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsxContentType
	case ".csv":
		return "text/csv"
	case ".geojson", ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
