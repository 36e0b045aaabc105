package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production API host used when no override is set.
	DefaultBaseURL = "https://fittrack-api.herokuapp.com/api"

	// DefaultTimeout bounds every API call issued through the client pair.
	DefaultTimeout = 30 * time.Second

	// DefaultRefreshLeeway is how long before token expiry a proactive
	// refresh becomes due.
	DefaultRefreshLeeway = time.Hour
)

// Config holds the client-side settings the SDK is constructed from.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string
	// StateDir is where the token record and client settings are persisted.
	StateDir string
	// Timeout applies to every request on both clients of the pair.
	Timeout time.Duration
	// RefreshLeeway controls when IsRefreshDue starts reporting true
	// relative to the token's expiry.
	RefreshLeeway time.Duration
	// DebugLogPath enables the rotating debug log when non-empty.
	DebugLogPath string
}

// FromEnv builds a Config from the environment, falling back to built-in
// defaults for anything unset.
//
//	FITTRACK_API_URL   API root (default DefaultBaseURL)
//	FITTRACK_STATE_DIR state directory (default <user config dir>/fittrack)
//	FITTRACK_DEBUG_LOG rotating debug log path (default off)
func FromEnv() Config {
	cfg := Config{
		BaseURL:      os.Getenv("FITTRACK_API_URL"),
		StateDir:     os.Getenv("FITTRACK_STATE_DIR"),
		DebugLogPath: os.Getenv("FITTRACK_DEBUG_LOG"),
	}
	return cfg.WithDefaults()
}

// WithDefaults returns a copy with every unset field replaced by its default.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if strings.TrimSpace(c.StateDir) == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.StateDir = filepath.Join(dir, "fittrack")
		} else {
			c.StateDir = ".fittrack"
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RefreshLeeway <= 0 {
		c.RefreshLeeway = DefaultRefreshLeeway
	}
	return c
}
