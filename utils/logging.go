package utils

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotatingLogger returns a debug-level slog logger writing to a rotating
// file at path. Used for the SDK's opt-in request tracing; an empty path
// returns nil, which disables tracing.
func NewRotatingLogger(path string) *slog.Logger {
	if path == "" {
		return nil
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With("component", "fittrack")
}
