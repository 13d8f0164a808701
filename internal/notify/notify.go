// Package notify carries user-visible notifications out of the engine.
//
// The engine's recoverable problems (an empty registration, a module that
// fails to activate) are surfaced to the user rather than returned as
// errors; Notifier is the seam the presentation side plugs into.
package notify

import (
	"os"

	"github.com/rs/zerolog"
)

// Notifier receives user-visible messages from the engine.
type Notifier interface {
	// Errorf reports a failure that had no caller to propagate to, such as
	// a load error inside a host trigger callback.
	Errorf(format string, args ...any)

	// Warnf reports a recoverable problem the user should see.
	Warnf(format string, args ...any)

	// Infof reports routine progress.
	Infof(format string, args ...any)
}

// Logger is a Notifier backed by zerolog.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a Notifier writing human-readable output to stderr.
func NewLogger() *Logger {
	return &Logger{
		log: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
}

// NewLoggerWith creates a Notifier over an existing zerolog logger.
func NewLoggerWith(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// Errorf implements Notifier.
func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

// Warnf implements Notifier.
func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

// Infof implements Notifier.
func (l *Logger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

// Discard is a Notifier that drops everything.
type Discard struct{}

// Errorf implements Notifier.
func (Discard) Errorf(format string, args ...any) {}

// Warnf implements Notifier.
func (Discard) Warnf(format string, args ...any) {}

// Infof implements Notifier.
func (Discard) Infof(format string, args ...any) {}
