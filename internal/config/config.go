// Package config loads the server configuration from an optional YAML
// file with environment variable overrides. Every field has a demo-ready
// default, so the server starts with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Port           int      `yaml:"port"`
	UploadDir      string   `yaml:"upload_dir"`
	LogLevel       string   `yaml:"log_level"`
	SeedDemoData   bool     `yaml:"seed_demo_data"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Fulfillment FulfillmentConfig `yaml:"fulfillment"`
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

// FulfillmentConfig configures the postcard fulfillment runner. All
// durations are Go duration strings ("30s", "12h").
type FulfillmentConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Interval    string `yaml:"interval"`
	LaunchAfter string `yaml:"launch_after"`
	ReturnAfter string `yaml:"return_after"`
	MailAfter   string `yaml:"mail_after"`
}

// Durations parses the configured stage durations.
func (f FulfillmentConfig) Durations() (interval, launch, ret, mail time.Duration, err error) {
	parse := func(name, raw string, fallback time.Duration) (time.Duration, error) {
		if raw == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("fulfillment %s: %w", name, err)
		}
		return d, nil
	}

	if interval, err = parse("interval", f.Interval, time.Minute); err != nil {
		return
	}
	if launch, err = parse("launch_after", f.LaunchAfter, 24*time.Hour); err != nil {
		return
	}
	if ret, err = parse("return_after", f.ReturnAfter, 72*time.Hour); err != nil {
		return
	}
	mail, err = parse("mail_after", f.MailAfter, 24*time.Hour)
	return
}

// Default returns the demo configuration.
func Default() Config {
	return Config{
		Port:           3001,
		UploadDir:      "uploads",
		LogLevel:       "info",
		SeedDemoData:   true,
		AllowedOrigins: []string{"*"},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}
}

// Load reads the file named by CONFIG_PATH (default config.yaml) when it
// exists, then applies environment overrides. A missing file is not an
// error; a malformed one is.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.UploadDir == "" {
		return Config{}, fmt.Errorf("upload_dir cannot be empty")
	}
	if _, _, _, _, err := cfg.Fulfillment.Durations(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if raw := os.Getenv("PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Port = port
		}
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}
