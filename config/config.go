// Package config provides configuration management for FileGate.
// It handles loading and validating configuration from YAML or JSON files
// and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server Server        `koanf:"server"`
	Auth   Auth          `koanf:"auth"`
	Log    Log           `koanf:"log"`
	CORS   CORS          `koanf:"cors"`
	Mounts []MountConfig `koanf:"mounts"`
}

// Server holds HTTP server configuration
type Server struct {
	ListenAddr     string        `koanf:"listen_addr"`
	CertFile       string        `koanf:"cert_file"`
	KeyFile        string        `koanf:"key_file"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// RateLimitRPS caps sustained requests per second per client IP on the
	// API endpoint; 0 disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// Auth holds authorization configuration. When AccessDB is set, tokens are
// checked against the access codes stored in that SQLite database;
// otherwise the static APIKeys list is used.
type Auth struct {
	APIKeys  []string `koanf:"api_keys"`
	AccessDB string   `koanf:"access_db"`
}

// Log holds logging configuration
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORS holds the cross-origin headers attached to every API response.
type CORS struct {
	AllowOrigin  string `koanf:"allow_origin"`
	AllowMethods string `koanf:"allow_methods"`
	AllowHeaders string `koanf:"allow_headers"`
}

// MountConfig describes one storage adapter mount. Key is the adapter name
// clients address ("local:/..."); Driver selects the backend implementation.
type MountConfig struct {
	Key      string `koanf:"key"`
	Driver   string `koanf:"driver"` // "memory", "local" or "s3"
	ReadOnly bool   `koanf:"read_only"`

	// RootPath is the on-disk root for the local driver.
	RootPath string `koanf:"root_path"`

	// Seed preloads the memory driver: keys are virtual paths, values file
	// content; a key ending in "/" creates an empty directory.
	Seed map[string]string `koanf:"seed"`

	// S3 driver settings.
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3Endpoint  string `koanf:"s3_endpoint"` // Custom S3 endpoint (e.g., for MinIO)
}
