// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the structured logger and the Prometheus
// metrics shared by every pipeline stage.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/pkg/types"
)

// NewLogger creates a zerolog logger from cfg. Unknown outputs fall back to
// stderr so log lines never mix with CSV or JSON written to stdout.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stderr
	}
	return newLogger(cfg, output)
}

func newLogger(cfg types.LoggingConfig, output io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Logger().
		Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
