// Package logger provides structured logging setup for the textembed service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log format names accepted in configuration.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel converts a configuration string into a slog.Level.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a slog.Logger writing to the given output with the configured
// level and format. A nil output defaults to stderr, which keeps log lines
// off stdout where the MCP stdio transport lives.
func New(level, format string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(strings.TrimSpace(format)) == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler).With("service", "textembed")
}
