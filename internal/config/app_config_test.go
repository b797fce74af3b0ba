package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorrio/icalsender/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8980, cfg.Port)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "learn.com", cfg.UIDDomain)
	assert.Equal(t, "LMS Organizer", cfg.OrganizerLabel)
	assert.Equal(t, 90, cfg.LogRetentionDays)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("ICALSENDER_DATA_DIR", "/tmp/icalsender-test")
	t.Setenv("ICALSENDER_UID_DOMAIN", "campus.example.org")
	t.Setenv("SMTP_HOST", "mail.example.org")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/icalsender-test", cfg.DataDir)
	assert.Equal(t, "campus.example.org", cfg.UIDDomain)
	assert.Equal(t, "mail.example.org", cfg.SMTP.Host)
	assert.Equal(t, "/tmp/icalsender-test/logs", cfg.LogDir())
	assert.Equal(t, "/tmp/icalsender-test/icalsender.db", cfg.DBPath())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		cfg := &config.AppConfig{LogLevel: tc.level}
		assert.Equal(t, tc.want, cfg.SlogLevel(), "level %q", tc.level)
	}
}

func TestCourseURL(t *testing.T) {
	cfg := &config.AppConfig{PlatformBaseURL: "https://learn.example.com"}
	assert.Equal(t, "https://learn.example.com/course/view?id=c-42", cfg.CourseURL("c-42"))
}
