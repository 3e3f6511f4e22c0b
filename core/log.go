package core

import (
	"os"

	"github.com/rs/zerolog"
)

// defaultLogger is silent: zerolog.Nop() has no allocation or formatting
// cost on a disabled log line, so leaving logging wired in by default (as
// opposed to nil-checking a *Logger everywhere) costs nothing on the hot
// path. Callers that want the worker-lifecycle trace busy_pool.hpp emits
// via DEBUG_TRACKER can opt in with WithLogger.
func defaultLogger() zerolog.Logger {
	return zerolog.Nop()
}

// NewConsoleLogger is a convenience constructor for a human-readable
// logger suitable for WithLogger during development, matching the
// console-writer idiom zerolog itself documents.
func NewConsoleLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
