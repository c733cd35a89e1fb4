// Package config holds the runtime settings for the API server.
package config

import (
	"flag"
	"fmt"
	"time"

	"cyclemap.dev/internal/citybikes"
)

// Config holds all the configuration settings for our application.
type Config struct {
	Port            int
	Env             string
	APIBaseURL      string
	RefreshInterval time.Duration
}

// RegisterFlags binds every setting to its command-line flag with its
// default value. Call flag.Parse after this.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&cfg.Port, "port", 4000, "API server port")
	fs.StringVar(&cfg.Env, "env", "development", "Environment (development|staging|production)")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", citybikes.DefaultBaseURL, "CityBikes API base URL")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", 5*time.Minute, "Interval between network list refreshes")
}

// Validate rejects settings the server cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	switch cfg.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment %q: must be development, staging or production", cfg.Env)
	}

	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api base URL must not be empty")
	}

	if cfg.RefreshInterval < 30*time.Second {
		return fmt.Errorf("refresh interval %s is too aggressive: minimum is 30s", cfg.RefreshInterval)
	}
	return nil
}
