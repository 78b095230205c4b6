package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps LOG_LEVEL style names to a slog level. Unknown names fall
// back to fallback.
func ParseLevel(name string, fallback slog.Level) slog.Level {
	switch strings.ToLower(name) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return fallback
	}
}

// New builds a logger writing to w. format "json" selects the JSON handler,
// anything else the text handler.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs a stderr logger as the default, configured from LOG_LEVEL and
// LOG_FORMAT. The player CLI only shows errors unless told otherwise.
func Init() {
	level := ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelError)
	slog.SetDefault(New(os.Stderr, level, os.Getenv("LOG_FORMAT")))
}
