// Package telemetry assembles the observability stack: leveled text
// logging with secret redaction, and optional OTLP trace export.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ParseLevel converts a config log level string to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("telemetry: unknown log level %q", s)
	}
}

// NewLogger builds the application logger: a text handler on stderr
// wrapped in a redacting handler so credentials never reach log output.
// Passing a *slog.LevelVar as the level makes the threshold adjustable
// at runtime.
func NewLogger(level slog.Leveler, redactor *Redactor) *slog.Logger {
	return newLoggerTo(os.Stderr, level, redactor)
}

func newLoggerTo(w io.Writer, level slog.Leveler, redactor *Redactor) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if redactor == nil {
		return slog.New(inner)
	}
	return slog.New(NewRedactingHandler(inner, redactor))
}
