// Package config loads the application configuration from a YAML file
// with environment variable overrides, and sets up logging.
package config

import (
	"fmt"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// Config represents the main application configuration.
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDB API configuration. An empty APIKey is allowed:
// the server starts and every data call reports CONFIG_ERROR, so a
// liveness probe can still tell the two apart.
type TMDbConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // for proxies and tests
}

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel        string `yaml:"log_level"`         // "debug", "info", "warn", "error"
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"` // response cache TTL
}

// Load loads configuration from a YAML file with environment variable
// overrides. A missing file is not an error; the configuration can be
// assembled entirely from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through to env overrides.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func (c *Config) applyEnvOverrides() {
	// TMDB. The bare TMDB_API_KEY form is the conventional variable
	// name for this credential and is honored alongside the
	// namespaced one.
	if v := os.Getenv("CINESCOPE_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	} else if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("CINESCOPE_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}

	// App
	if v := os.Getenv("CINESCOPE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINESCOPE_CACHE_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.App.CacheTTLSeconds = ttl
		}
	}
}

// Validate validates the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.App.CacheTTLSeconds < 0 {
		return fmt.Errorf("app.cache_ttl_seconds must not be negative")
	}

	switch c.App.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error")
	}

	// Set defaults
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.CacheTTLSeconds == 0 {
		c.App.CacheTTLSeconds = 300
	}

	return nil
}
