package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"synvoy-client/internal/session"
)

// Environment variables that override the file.
const (
	EnvAPIURL      = "SYNVOY_API_URL"
	EnvSessionFile = "SYNVOY_SESSION_FILE"
	EnvLogLevel    = "SYNVOY_LOG_LEVEL"
)

// DefaultBaseURL is the API root used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// Config holds all configuration for the client
type Config struct {
	API          APIConfig          `yaml:"api"`
	Session      SessionConfig      `yaml:"session"`
	Verification VerificationConfig `yaml:"verification"`
	Log          LogConfig          `yaml:"log"`
}

// APIConfig holds the remote API settings
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds where the session is persisted
type SessionConfig struct {
	Path string `yaml:"path"`
}

// VerificationConfig holds the verify-email timer intervals
type VerificationConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultPath returns config.yaml next to the default session file.
func DefaultPath() string {
	return filepath.Join(filepath.Dir(session.DefaultPath()), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Path: session.DefaultPath(),
		},
		Verification: VerificationConfig{
			PollInterval: 5 * time.Second,
			TickInterval: time.Second,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults. A missing
// file is not an error. Environment variables, including those from a .env
// file in the working directory, override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the values the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url %q: %w", c.API.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: want an http(s) URL", c.API.BaseURL)
	}
	if c.Session.Path == "" {
		return fmt.Errorf("session.path must not be empty")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Verification.PollInterval <= 0 || c.Verification.TickInterval <= 0 {
		return fmt.Errorf("verification intervals must be positive")
	}
	return nil
}
