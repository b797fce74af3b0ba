// Package config holds application configuration loaded from environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8980.
	Port int `envconfig:"PORT" default:"8980"`

	// DataDir is the root data directory. Defaults to ~/.icalsender.
	DataDir string `envconfig:"ICALSENDER_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PlatformBaseURL is the base URL of the learning platform, used to build
	// course links in notification bodies.
	PlatformBaseURL string `envconfig:"ICALSENDER_PLATFORM_BASE_URL" default:"https://learn.example.com"`

	// UIDDomain is the domain suffix appended to event identifiers to form
	// the calendar UID. Must stay stable across invite/update/cancel so
	// clients recognize all three as the same calendar item.
	UIDDomain string `envconfig:"ICALSENDER_UID_DOMAIN" default:"learn.com"`

	// OrganizerLabel is the display name rendered as ORGANIZER on the
	// organizer's own copy of an invite.
	OrganizerLabel string `envconfig:"ICALSENDER_ORGANIZER_LABEL" default:"LMS Organizer"`

	// LogRetentionDays is how long delivery-log rows are kept before the
	// retention job prunes them.
	LogRetentionDays int `envconfig:"ICALSENDER_LOG_RETENTION_DAYS" default:"90"`

	SMTP SMTPConfig
}

// SMTPConfig holds connection parameters for the SMTP mail transport.
type SMTPConfig struct {
	Host       string `envconfig:"SMTP_HOST" default:"localhost"`
	Port       int    `envconfig:"SMTP_PORT" default:"587"`
	Username   string `envconfig:"SMTP_USERNAME"`
	Password   string `envconfig:"SMTP_PASSWORD"`
	FromAddr   string `envconfig:"SMTP_FROM_ADDRESS" default:"noreply@learn.example.com"`
	Encryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"` // "none", "starttls", "ssl_tls"
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.icalsender if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".icalsender")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
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

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "icalsender.db")
}

// CourseURL builds the platform link for a course, used in message bodies.
func (c *AppConfig) CourseURL(courseID string) string {
	return fmt.Sprintf("%s/course/view?id=%s", c.PlatformBaseURL, courseID)
}
