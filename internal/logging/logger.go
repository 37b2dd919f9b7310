// Package logging builds the structured loggers shared by the API
// process: booking, wallet, webhook and middleware code all log through
// a slog.Logger produced here.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process-wide JSON logger tagged with the service name.
// An unknown level string falls back to info so a misconfigured
// LOG_LEVEL never silences booking or reconciliation logs.
func New(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With(slog.String("service", "raha-send"))
}

// Discard returns a logger whose output is dropped. Handlers and
// services under test take it instead of a nil logger.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
