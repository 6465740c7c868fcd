package config

import (
	"io"
	"log/slog"
)

// NewLogger creates a slog.Logger for the given level and format. It does not
// set the global logger. Unknown levels fall back to info and unknown formats
// to text.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// Logger creates the logger described by the configuration.
func (c *Config) Logger(outW io.Writer) *slog.Logger {
	return NewLogger(c.Log.Level, c.Log.Format, outW)
}
