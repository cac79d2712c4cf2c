package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger. LOG_LEVEL accepts debug, info, warn
// and error; anything else means info.
func NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", "bbbank-ui")
}
