package timing

import (
	"context"
	"time"
)

// Timer is a pending callback registered with a TimeProvider.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// TimeProvider is the delay service used by time-based sources and units of
// work: after a duration it invokes a callback, and the pending callback can
// be canceled.
type TimeProvider interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the TimeProvider backed by the runtime clock.
var System TimeProvider = systemProvider{}

type systemProvider struct{}

func (systemProvider) Now() time.Time { return time.Now() }

func (systemProvider) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// OrSystem returns tp, or System if tp is nil.
func OrSystem(tp TimeProvider) TimeProvider {
	if tp == nil {
		return System
	}
	return tp
}

// Delay blocks for d on tp, returning early with ctx.Err() if ctx ends first.
func Delay(ctx context.Context, tp TimeProvider, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	fired := make(chan struct{})
	t := OrSystem(tp).AfterFunc(d, func() { close(fired) })

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}
