// Package config resolves the CLI's settings. Sources are layered in
// precedence order: built-in defaults, an optional YAML config file, a
// .env file, then REDMARK_-prefixed environment variables. Command-line
// flags sit above all of these and are merged by the cli package.
//
// The orchestration core does not read configuration; its timeouts are
// fixed constants. Everything here exists for the command-line surface.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file probed in the working directory when
// no explicit path is given.
const DefaultFile = "redmark.yaml"

// EnvPrefix is the prefix shared by all recognized environment variables.
const EnvPrefix = "REDMARK_"

// Config holds the CLI-facing settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string

	// Author is the default author attributed to applied edits.
	Author string

	// EnsureTimeout bounds how long the CLI waits for engine readiness.
	EnsureTimeout time.Duration

	// CallTimeout bounds one document operation round trip.
	CallTimeout time.Duration
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "text",
		EnsureTimeout: 90 * time.Second,
		CallTimeout:   30 * time.Second,
	}
}

// fileConfig is the merge shape shared by the YAML file and the
// environment: every field is a string, and empty means "not set".
type fileConfig struct {
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	Author        string `yaml:"author"`
	EnsureTimeout string `yaml:"ensure_timeout"`
	CallTimeout   string `yaml:"call_timeout"`
}

// Load resolves configuration from every source below flags. When path
// is empty the default file is probed and silently skipped if absent;
// an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := cfg.merge(fc); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// .env supplements the environment but never overrides it, so
	// exported variables keep precedence over file entries.
	_ = godotenv.Load()

	if err := cfg.merge(envConfig()); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envConfig() fileConfig {
	return fileConfig{
		LogLevel:      os.Getenv(EnvPrefix + "LOG_LEVEL"),
		LogFormat:     os.Getenv(EnvPrefix + "LOG_FORMAT"),
		Author:        os.Getenv(EnvPrefix + "AUTHOR"),
		EnsureTimeout: os.Getenv(EnvPrefix + "ENSURE_TIMEOUT"),
		CallTimeout:   os.Getenv(EnvPrefix + "CALL_TIMEOUT"),
	}
}

// merge overlays the non-empty fields of src.
func (c *Config) merge(src fileConfig) error {
	if src.LogLevel != "" {
		c.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		c.LogFormat = src.LogFormat
	}
	if src.Author != "" {
		c.Author = src.Author
	}
	if src.EnsureTimeout != "" {
		d, err := time.ParseDuration(src.EnsureTimeout)
		if err != nil {
			return fmt.Errorf("ensure_timeout: %w", err)
		}
		c.EnsureTimeout = d
	}
	if src.CallTimeout != "" {
		d, err := time.ParseDuration(src.CallTimeout)
		if err != nil {
			return fmt.Errorf("call_timeout: %w", err)
		}
		c.CallTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn, or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.EnsureTimeout <= 0 {
		return fmt.Errorf("ensure timeout must be positive, got %s", c.EnsureTimeout)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}
	return nil
}

// SlogLevel maps the configured level to its slog value. Call Validate
// first; unknown levels fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
