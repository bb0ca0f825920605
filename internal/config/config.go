// Package config loads dishtap settings from dishtap.yaml, .env and
// DISHTAP_* environment variables.
package config

import "time"

type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ScraperConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ProxyURL    string        `mapstructure:"proxy_url"`
	RPS         float64       `mapstructure:"rps"`
	Concurrency int           `mapstructure:"concurrency"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
	// FilePrefix is followed by a timestamp and .xlsx.
	FilePrefix string `mapstructure:"file_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type UploadConfig struct {
	Backend string      `mapstructure:"backend"`
	Drive   DriveConfig `mapstructure:"drive"`
	S3      S3Config    `mapstructure:"s3"`
}

type DriveConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type GeocodeConfig struct {
	ForwardURL string        `mapstructure:"forward_url"`
	ReverseURL string        `mapstructure:"reverse_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	File string `mapstructure:"file"`
}
