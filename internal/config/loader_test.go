package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://www.swiggy.com/dapi/restaurants/search/v3", cfg.Scraper.Endpoint)
	assert.Contains(t, cfg.Scraper.UserAgent, "Chrome/91")
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 1, cfg.Scraper.Concurrency)
	assert.Zero(t, cfg.Scraper.RPS)
	assert.Equal(t, "SwiggyData", cfg.Output.FilePrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Upload.Backend)
	assert.Equal(t, 10*time.Second, cfg.Geocode.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)
	yaml := `
scraper:
  concurrency: 3
  timeout: 5s
output:
  dir: ./exports
upload:
  backend: drive
  drive:
    credentials_file: sa.json
    folder_id: abc123
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dishtap.yaml"), []byte(yaml), 0644))
	t.Setenv("DISHTAP_SCRAPER_CONCURRENCY", "4")
	t.Setenv("DISHTAP_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Scraper.Concurrency, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "./exports", cfg.Output.Dir)
	assert.Equal(t, "drive", cfg.Upload.Backend)
	assert.Equal(t, "sa.json", cfg.Upload.Drive.CredentialsFile)
	assert.Equal(t, "abc123", cfg.Upload.Drive.FolderID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DISHTAP_UPLOAD_S3_BUCKET=dish-exports\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DISHTAP_UPLOAD_S3_BUCKET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dish-exports", cfg.Upload.S3.Bucket)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  file: /tmp/dishtap.prom\n"), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dishtap.prom", cfg.Metrics.File)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"zero concurrency", "DISHTAP_SCRAPER_CONCURRENCY", "0"},
		{"negative rps", "DISHTAP_SCRAPER_RPS", "-1"},
		{"bad log format", "DISHTAP_LOG_FORMAT", "xml"},
		{"bad backend", "DISHTAP_UPLOAD_BACKEND", "ftp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.val)
			_, err := Load("")
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}
