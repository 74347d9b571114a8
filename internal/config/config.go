// Package config loads runtime settings: the database location and log level.
// Values come from an optional YAML file, then environment variables, and
// command-line flags override both.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigFile = "UNITCONV_CONFIG"
	EnvDatabase   = "UNITCONV_DB"
	EnvLogLevel   = "UNITCONV_LOG_LEVEL"
)

// DefaultDatabase is the database file used when nothing overrides it.
const DefaultDatabase = "unit_converter.db"

// Config holds the application settings.
type Config struct {
	// Database is the path of the SQLite database file.
	Database string `yaml:"database"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Load builds a Config from defaults, the YAML file at path (or
// $UNITCONV_CONFIG when path is empty) and the environment.
// A missing file is an error only when it was named explicitly.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Database: DefaultDatabase,
		LogLevel: "info",
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Database = envOrDefault(EnvDatabase, cfg.Database)
	cfg.LogLevel = envOrDefault(EnvLogLevel, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if file.Database != "" {
		c.Database = file.Database
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
