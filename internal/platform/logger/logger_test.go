package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" DEBUG ", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLevel(tc.name), "level %q", tc.name)
	}
}

func TestNew_HonorsLogLevelEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	log := New()
	assert.False(t, log.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, log.Enabled(t.Context(), slog.LevelError))

	t.Setenv("LOG_LEVEL", "debug")
	log = New()
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
}
