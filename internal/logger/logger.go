package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default JSON logger on stderr. The level comes from
// LOG_LEVEL (debug, info, warn, error) and defaults to info.
func Init() {
	slog.SetDefault(New(os.Stderr, os.Getenv("LOG_LEVEL")))
}

func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
