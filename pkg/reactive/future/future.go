package future

import (
	"context"
	"sync/atomic"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// State is the resolution state of a Future.
type State int32

const (
	// Pending means no resolution has been recorded yet.
	Pending State = iota
	// Succeeded means the future holds a value.
	Succeeded
	// Failed means the future holds an error.
	Failed
	// Canceled means the future was canceled before it resolved.
	Canceled

	// settling is held by the single writer while it publishes the outcome.
	settling State = -1
)

func (s State) String() string {
	switch s {
	case Pending, settling:
		return "Pending"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case Canceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Future is a single-assignment result cell. Exactly one of TrySetResult,
// TrySetError or TrySetCanceled wins; every later attempt is a no-op that
// reports false.
//
// The zero value is not usable; create futures with New.
type Future[R any] struct {
	state atomic.Int32
	done  chan struct{}
	value R
	err   error
}

// New creates a pending Future.
func New[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// TrySetResult resolves the future with value. It reports whether this call
// performed the resolution.
func (f *Future[R]) TrySetResult(value R) bool {
	return f.settle(Succeeded, func() { f.value = value })
}

// TrySetError fails the future with err. It reports whether this call
// performed the resolution.
func (f *Future[R]) TrySetError(err error) bool {
	return f.settle(Failed, func() { f.err = err })
}

// TrySetCanceled cancels the future. It reports whether this call performed
// the resolution.
func (f *Future[R]) TrySetCanceled() bool {
	return f.settle(Canceled, func() { f.err = rxerrors.ErrCanceled })
}

func (f *Future[R]) settle(to State, publish func()) bool {
	if !f.state.CompareAndSwap(int32(Pending), int32(settling)) {
		return false
	}
	publish()
	f.state.Store(int32(to))
	close(f.done)
	return true
}

// Done returns a channel closed once the future is resolved.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// State returns the current resolution state.
func (f *Future[R]) State() State {
	s := State(f.state.Load())
	if s == settling {
		return Pending
	}
	return s
}

// Result returns the outcome of a resolved future without blocking. ok is
// false while the future is pending.
func (f *Future[R]) Result() (value R, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		return value, false, nil
	}
}

// Await blocks until the future resolves or ctx is done. A canceled future
// returns an error matching context.Canceled. Await does not cancel the
// future when ctx ends.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
