package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog.Logger for the configured environment.
// Production uses the JSON handler; otherwise the text handler.
// LOG_LEVEL may be: debug, info, warn, error (default: info).
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}
	var handler slog.Handler
	if cfg != nil && cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "savingscircle")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
