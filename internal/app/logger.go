package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app-scoped logger. The global slog default stays
// untouched so concurrent App instances (tests, mainly) cannot observe
// each other's output.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

// parseLevel maps the config's level string to a slog level. The CLI has
// already validated it; anything unrecognized degrades to info.
func parseLevel(level string) slog.Level {
	switch level {
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
