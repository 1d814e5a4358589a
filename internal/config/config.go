// Package config defines service configuration and its loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers defaults, an optional YAML file and environment variables.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// History backends.
const (
	HistoryBackendFile   = "file"
	HistoryBackendBadger = "badger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone names the IANA zone used to decide what "today" is when
	// counting days to a deadline. Empty means the process local zone.
	Timezone string `koanf:"timezone"`

	// DataDir holds schedules.json, stress_log.json and the history.
	DataDir string `koanf:"data_dir"`

	// HistoryBackend is "file" (risk_history.json) or "badger".
	HistoryBackend string `koanf:"history_backend"`

	// DedupeSize bounds how many stress sample ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// LLM settings for any OpenAI-compatible chat endpoint.
	LLMAPIKey      string `koanf:"llm_api_key"`
	LLMBaseURL     string `koanf:"llm_base_url"`
	LLMModel       string `koanf:"llm_model"`
	LLMMaxAttempts int    `koanf:"llm_max_attempts"`
	LLMRetryBaseMS int    `koanf:"llm_retry_base_ms"`
	LLMTimeoutMS   int    `koanf:"llm_timeout_ms"`

	// Google Calendar settings. An empty credentials file disables it.
	CalendarCredentialsFile string `koanf:"calendar_credentials_file"`
	CalendarWindowDays      int    `koanf:"calendar_window_days"`
	CalendarMaxResults      int    `koanf:"calendar_max_results"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DataDir:            "data",
		HistoryBackend:     HistoryBackendFile,
		DedupeSize:         10_000,
		LLMBaseURL:         "https://generativelanguage.googleapis.com/v1beta/openai/",
		LLMModel:           "gemini-2.5-flash",
		LLMMaxAttempts:     3,
		LLMRetryBaseMS:     1000,
		LLMTimeoutMS:       30_000,
		CalendarWindowDays: 14,
		CalendarMaxResults: 200,
	}
}

// Validate checks the invariants Load relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendBadger:
	default:
		return fmt.Errorf("%w: unknown history_backend %q", ErrInvalidConfig, c.HistoryBackend)
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("%w: llm_max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.CalendarWindowDays < 1 || c.CalendarMaxResults < 1 {
		return fmt.Errorf("%w: calendar window and max results must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// LLMEnabled reports whether an API key is configured.
func (c *Config) LLMEnabled() bool { return strings.TrimSpace(c.LLMAPIKey) != "" }

// CalendarEnabled reports whether calendar credentials are configured.
func (c *Config) CalendarEnabled() bool { return strings.TrimSpace(c.CalendarCredentialsFile) != "" }

// LLMRetryBase returns the first retry delay.
func (c *Config) LLMRetryBase() time.Duration {
	return time.Duration(c.LLMRetryBaseMS) * time.Millisecond
}

// LLMTimeout returns the per-request timeout for LLM calls.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMS) * time.Millisecond
}

// Path joins name onto DataDir.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}
