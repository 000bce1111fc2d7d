// Package config provides configuration loading and structs for counsel.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAPIBaseURL = "COUNSEL_API_BASE_URL"
	EnvDebug      = "COUNSEL_DEBUG"
)

// Config holds all configuration for the application.
type Config struct {
	Debug bool      `yaml:"debug"`
	API   APIConfig `yaml:"api"`
	Web   WebConfig `yaml:"web"`
	Log   LogConfig `yaml:"log"`
	UI    UIConfig  `yaml:"ui"`
}

// APIConfig points at the question-answering service.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each request. Zero means requests wait until the service answers.
	Timeout time.Duration `yaml:"timeout"`
}

// WebConfig holds settings for the browser front end.
type WebConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// LogConfig controls where logs are written. An empty File logs to stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// UIConfig holds terminal rendering settings.
type UIConfig struct {
	WrapWidth int `yaml:"wrap_width"`
}

// Default returns a config with defaults and environment overrides applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg, os.LookupEnv)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and applies environment overrides. Returns an error if the file
// cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File, filepath.Dir(path))
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
