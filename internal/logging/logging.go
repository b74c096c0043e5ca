// Package logging builds the structured logger used by the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Format is the log output encoding
type Format string

// Formats
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds the configuration for the logger
type Config struct {
	Verbose bool      // debug level instead of warn
	Format  Format    // text when empty
	Output  io.Writer // os.Stderr when nil
}

// New creates a structured logger. Reports go to stdout, so logs default
// to stderr and stay quiet below warn unless verbose.
func New(config Config) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: Level(config.Verbose)}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}
	return slog.New(handler)
}

// Level maps the verbose switch to a slog level.
func Level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
