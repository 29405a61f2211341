package postfx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called from a tooling goroutine while a frame is running.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for postfx and all its sub-packages.
// By default, postfx produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by postfx:
//   - [slog.LevelDebug]: pipeline builds, camera attachment, pass allocation
//   - [slog.LevelInfo]: lifecycle events (pipeline swept by the manager)
//   - [slog.LevelWarn]: non-fatal issues (MSAA promotion failed, missing
//     depth texture, shader compilation failure)
//   - [slog.LevelError]: API misuse that is ignored (attaching a
//     non-reusable pass twice)
//
// Example:
//
//	postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by postfx.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
