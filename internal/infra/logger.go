package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger on stdout. See NewLoggerTo.
func NewLogger(appEnv, level string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, appEnv, level)
}

// NewLoggerTo writes JSON to w, or console lines when appEnv is
// "development". level overrides the default of info (debug in
// development); an unknown level keeps the default.
func NewLoggerTo(w io.Writer, appEnv, level string) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Millisecond

	lvl := zerolog.InfoLevel
	if appEnv == "development" {
		lvl = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		lvl = parsed
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "donortrack").
		Logger()
}

// Logger aliases zerolog.Logger for packages that only pass it along.
type Logger = zerolog.Logger
