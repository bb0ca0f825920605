package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "DISHTAP"

var defaults = map[string]any{
	"scraper.endpoint":              "https://www.swiggy.com/dapi/restaurants/search/v3",
	"scraper.user_agent":            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"scraper.timeout":               "30s",
	"scraper.proxy_url":             "",
	"scraper.rps":                   0.0,
	"scraper.concurrency":           1,
	"output.dir":                    ".",
	"output.file_prefix":            "SwiggyData",
	"log.level":                     "info",
	"log.format":                    "console",
	"upload.backend":                "",
	"upload.drive.credentials_file": "",
	"upload.drive.folder_id":        "",
	"upload.s3.bucket":              "",
	"upload.s3.prefix":              "",
	"upload.s3.region":              "",
	"geocode.forward_url":           "https://geocode.xyz",
	"geocode.reverse_url":           "https://nominatim.openstreetmap.org",
	"geocode.timeout":               "10s",
	"metrics.file":                  "",
}

// Load reads configuration. With an explicit path that file must exist;
// otherwise dishtap.yaml is looked up in ., ./configs and the user config
// dir, and a missing file is not an error. A .env in the working directory
// is loaded first without overriding variables already set.
func Load(path string) (*Config, error) {
	loadEnvFile(".env")

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("dishtap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "dishtap"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func validateConfig(cfg *Config) error {
	if cfg.Scraper.Endpoint == "" {
		return fmt.Errorf("scraper.endpoint is required")
	}
	if cfg.Scraper.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be at least 1, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.RPS < 0 {
		return fmt.Errorf("scraper.rps must not be negative")
	}
	if cfg.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be positive")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", cfg.Log.Format)
	}
	switch strings.ToLower(cfg.Upload.Backend) {
	case "", "none", "drive", "gdrive", "s3":
	default:
		return fmt.Errorf("unknown upload.backend %q", cfg.Upload.Backend)
	}
	return nil
}
