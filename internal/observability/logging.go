package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger with a component field attached. Records go
// to stderr because stdout carries the step output.
func NewLogger(component string) *slog.Logger {
	return NewLoggerTo(os.Stderr, component)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, component string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

func WithTrigger(logger *slog.Logger, eventName, ref string) *slog.Logger {
	if logger == nil || eventName == "" {
		return logger
	}
	if ref == "" {
		return logger.With("trigger", eventName)
	}
	return logger.With("trigger", eventName, "ref", ref)
}

func WithFamily(logger *slog.Logger, family string) *slog.Logger {
	if logger == nil || family == "" {
		return logger
	}
	return logger.With("family", family)
}
