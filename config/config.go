// Package config loads and validates the flagbridge process configuration.
// Configuration is decoded from the environment exactly once at startup and
// is read-only thereafter; every later layer receives it by reference
// through the execution context.
package config

import (
	"fmt"
	"net/url"

	"github.com/joeshaw/envdecode"
)

// Config holds the startup-time inputs for the bridge. Defaults can be
// loaded via envdecode.
type Config struct {
	// BaseURL of the remote feature-flag REST API. ENV: FLAGBRIDGE_API_BASE_URL
	BaseURL string `env:"FLAGBRIDGE_API_BASE_URL,default=https://app.launchdarkly.com"`
	// AccessToken forwarded to the remote API. ENV: FLAGBRIDGE_API_TOKEN
	AccessToken string `env:"FLAGBRIDGE_API_TOKEN,required"`
	// Project is the default project key when a tool call names none.
	// ENV: FLAGBRIDGE_PROJECT
	Project string `env:"FLAGBRIDGE_PROJECT"`
	// Environment is the default environment key. ENV: FLAGBRIDGE_ENVIRONMENT
	Environment string `env:"FLAGBRIDGE_ENVIRONMENT,default=production"`
	// DryRun simulates mutating operations without touching remote state.
	// ENV: FLAGBRIDGE_DRY_RUN
	DryRun bool `env:"FLAGBRIDGE_DRY_RUN,default=false"`
	// LogLevel threshold: debug, info, warn or error. ENV: FLAGBRIDGE_LOG_LEVEL
	LogLevel string `env:"FLAGBRIDGE_LOG_LEVEL,default=info"`
	// LogFile, when set, receives all diagnostics append-only instead of
	// stderr. ENV: FLAGBRIDGE_LOG_FILE
	LogFile string `env:"FLAGBRIDGE_LOG_FILE"`
	// OverridesFile optionally points at a local YAML flag-overrides file
	// consulted before any remote evaluation. ENV: FLAGBRIDGE_OVERRIDES_FILE
	OverridesFile string `env:"FLAGBRIDGE_OVERRIDES_FILE"`
	// HTTPListen, when set, additionally serves the bridge over HTTP POST on
	// this address. ENV: FLAGBRIDGE_HTTP_LISTEN
	HTTPListen string `env:"FLAGBRIDGE_HTTP_LISTEN"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that envdecode tags cannot express. It must
// pass before any operation runs.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("access token is required (set FLAGBRIDGE_API_TOKEN)")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL %q must use http or https", c.BaseURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (set FLAGBRIDGE_LOG_LEVEL to debug, info, warn or error)", c.LogLevel)
	}
	return nil
}
