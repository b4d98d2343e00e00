// Package logger builds the process-wide structured logger. Output is JSON
// on stdout so the log shipper can ingest it without a parsing rule.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured JSON logger. The level comes from the LOG_LEVEL
// environment variable (debug, info, warn, error); anything else, including
// an unset variable, means info.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// ParseLevel maps a level name to its slog value, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
