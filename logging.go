// logging.go - structured logging wiring for the replay harness.
//
// Logging uses github.com/joeycumines/logiface as the facade and
// github.com/joeycumines/izerolog (backed by github.com/rs/zerolog) as the
// default backend. A package-level atomic pointer holds the active logger,
// mirroring the teacher's package-level global-logger pattern but swapping
// the bespoke Logger interface/RWMutex pair for a generic facade and a
// lock-free atomic.Pointer, since logiface.Logger values are themselves
// safe for concurrent use once constructed.
package replay

import (
	"os"
	"sync/atomic"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the structured logger type used throughout the package: a
// logiface facade bound to the izerolog/zerolog event implementation.
type Logger = logiface.Logger[*izerolog.Event]

var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(newDefaultLogger())
}

// newDefaultLogger builds the out-of-the-box logger: zerolog writing
// human-readable output to stderr at info level, matching the teacher's
// "pretty-print when interactive" default.
func newDefaultLogger() *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return logiface.New[*izerolog.Event](
		izerolog.L.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](logiface.LevelInformational),
	)
}

// SetLogger installs l as the package-level default logger, returned by
// subsequent calls to defaultLogger and used by any [Driver] constructed
// without an explicit [WithLogger] option.
func SetLogger(l *Logger) {
	if l == nil {
		l = newDefaultLogger()
	}
	globalLogger.Store(l)
}

// defaultLogger returns the current package-level logger.
func defaultLogger() *Logger {
	return globalLogger.Load()
}
