// Package logger wraps zerolog behind a small structured-logging API.
// Components obtain pre-tagged loggers from the accessors in context.go.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	root = newRoot(os.Stderr, zerolog.InfoLevel, true)
)

// Logger is a lightweight structured logger. The zero value is usable
// and writes through the process-wide root.
type Logger struct {
	zl zerolog.Logger
}

// Init configures the process-wide root logger. level is one of
// trace/debug/info/warn/error; console selects human-readable output
// instead of JSON.
func Init(level string, console bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	mu.Lock()
	root = newRoot(os.Stderr, lvl, console)
	mu.Unlock()
}

func newRoot(w io.Writer, lvl zerolog.Level, console bool) Logger {
	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return Logger{zl: zl}
}

// Root returns the process-wide root logger.
func Root() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// WithField returns a logger carrying an additional fixed field.
func WithField(key, value string) Logger {
	return Root().WithField(key, value)
}

// WithField returns a derived logger with an additional fixed field.
func (l Logger) WithField(key, value string) Logger {
	return Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l Logger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l Logger) Infof(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l Logger) Warnf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l Logger) Errorf(err error, format string, args ...interface{}) {
	l.zl.Error().Err(err).Msgf(format, args...)
}
