package config

import (
	"strings"
	"time"
)

// DefaultBaseURL is the service address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Web.Host == "" {
		cfg.Web.Host = "localhost"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 5173
	}
	if cfg.Web.SessionTTL == 0 {
		cfg.Web.SessionTTL = time.Hour
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.UI.WrapWidth == 0 {
		cfg.UI.WrapWidth = 100
	}
}
