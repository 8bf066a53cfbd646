package errors

import (
	"log/slog"
	"sync/atomic"
)

// UnhandledHandler receives errors that have no caller to return to, such as
// failures raised while releasing a resource during disposal.
type UnhandledHandler func(err error)

var unhandled atomic.Pointer[UnhandledHandler]

// SetUnhandledHandler replaces the process-wide unhandled error sink.
// Passing nil restores the default, which logs through slog.Default().
func SetUnhandledHandler(h UnhandledHandler) {
	if h == nil {
		unhandled.Store(nil)
		return
	}
	unhandled.Store(&h)
}

// HandleUnhandled routes err to the unhandled error sink. It never panics:
// a panicking handler is recovered and logged.
func HandleUnhandled(err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("unhandled error handler panicked", "panic", r, "error", err)
		}
	}()

	if h := unhandled.Load(); h != nil {
		(*h)(err)
		return
	}
	slog.Default().Warn("unhandled error", "error", err)
}
