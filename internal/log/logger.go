// Package log is addonmgr's structured logging facade over log/slog.
//
// Stdout carries user output (update summaries, progress, listings); this
// package writes diagnostics to stderr. The CLI picks the level:
//
//	--quiet    ERROR
//	(default)  WARN
//	--verbose  INFO   resolved releases, files moved, addons skipped
//	--debug    DEBUG  fingerprint comparisons and other internals
//
// Library packages take a Logger through a WithLogger option and fall back
// to Default.
package log

import (
	"log/slog"
	"sync/atomic"
)

// Logger is the logging surface used across addonmgr. Arguments are slog
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that adds args to every entry.
	With(args ...any) Logger
}

// slogLogger adapts *slog.Logger; Debug through Error are promoted.
type slogLogger struct {
	*slog.Logger
}

// New creates a Logger writing through h.
func New(h slog.Handler) Logger {
	return slogLogger{slog.New(h)}
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
func (d discard) With(...any) Logger { return d }

// NewNoop returns a Logger that drops everything. Tests use it to keep
// output clean.
func NewNoop() Logger {
	return discard{}
}

// boxed lets an interface value live in an atomic.Pointer.
type boxed struct{ Logger }

var current atomic.Pointer[boxed]

// Default returns the process-wide logger, a no-op until SetDefault runs.
func Default() Logger {
	if b := current.Load(); b != nil {
		return b.Logger
	}
	return discard{}
}

// SetDefault replaces the process-wide logger. The CLI calls it once after
// parsing verbosity flags.
func SetDefault(l Logger) {
	if l == nil {
		l = discard{}
	}
	current.Store(&boxed{l})
}
