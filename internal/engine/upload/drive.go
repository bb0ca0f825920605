package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Drive uploads into a Google Drive folder as a service account. The
// drive.file scope only grants access to files this account creates.
type Drive struct {
	svc      *drive.Service
	folderID string
}

// NewDrive reads a service account key from credsPath.
func NewDrive(ctx context.Context, credsPath, folderID string) (*Drive, error) {
	credsJSON, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("reading service account file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, credsJSON, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("creating credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return NewDriveWithService(svc, folderID), nil
}

// NewDriveWithService wraps an existing client.
func NewDriveWithService(svc *drive.Service, folderID string) *Drive {
	return &Drive{svc: svc, folderID: folderID}
}

func (d *Drive) Name() string { return "drive" }

// Upload creates a new file named after path's base name and returns its id.
func (d *Drive) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     filepath.Base(path),
		MimeType: contentType(path),
	}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}

	created, err := d.svc.Files.Create(meta).
		Media(f).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("uploading to drive: %w", err)
	}
	return created.Id, nil
}
