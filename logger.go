package texdecode

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled reports false so callers skip building attributes entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so SetLogger may
// race with logging from decode or dispatch goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for texdecode and all its sub-packages
// (kernel, bench, backend). By default nothing is logged.
//
// Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: pipeline creation, buffer sizes, dispatch grids
//   - [slog.LevelInfo]: backend selection, periodic benchmark reports
//   - [slog.LevelWarn]: vector fallback, resource release problems
//
// Example:
//
//	texdecode.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages call this instead of
// keeping their own copy so a single SetLogger call reaches everything.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
