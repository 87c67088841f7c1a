package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger configures the global logger based on the configuration.
// Logs go to stderr: stdout belongs to the MCP stdio transport.
func SetupLogger(level string) *slog.Logger {
	logger := NewLogger(level, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// NewLogger builds a JSON slog logger at the given level writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug, // Add source file/line in debug mode
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}
