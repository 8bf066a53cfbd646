package observable

import (
	"sync/atomic"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
)

const (
	stateActive int32 = iota
	stateCompleted
	stateDisposed
)

// SafeObserver guards an Observer: completion is delivered at most once,
// nothing is delivered after completion or disposal, and the upstream
// subscription is released on either.
type SafeObserver[T any] struct {
	inner    Observer[T]
	state    atomic.Int32
	upstream disposable.SingleAssignment
}

// NewSafeObserver wraps inner.
func NewSafeObserver[T any](inner Observer[T]) *SafeObserver[T] {
	return &SafeObserver[T]{inner: inner}
}

// SetUpstream records the subscription feeding this observer. If the guard
// has already stopped, d is disposed immediately.
func (s *SafeObserver[T]) SetUpstream(d disposable.Disposable) {
	if d == nil {
		return
	}
	if err := s.upstream.Set(d); err != nil {
		rxerrors.HandleUnhandled(rxerrors.NewOperationError("observable", "SetUpstream", err))
	}
}

// OnNext forwards value unless the observer has stopped.
func (s *SafeObserver[T]) OnNext(value T) {
	if s.state.Load() != stateActive {
		return
	}
	s.inner.OnNext(value)
}

// OnErrorResume forwards err unless the observer has stopped.
func (s *SafeObserver[T]) OnErrorResume(err error) {
	if s.state.Load() != stateActive {
		return
	}
	s.inner.OnErrorResume(err)
}

// OnCompleted forwards the first completion and releases the upstream.
func (s *SafeObserver[T]) OnCompleted(result Result) {
	if !s.state.CompareAndSwap(stateActive, stateCompleted) {
		return
	}
	defer s.upstream.Dispose()
	s.inner.OnCompleted(result)
}

// Dispose stops delivery and releases the upstream subscription.
func (s *SafeObserver[T]) Dispose() {
	s.state.CompareAndSwap(stateActive, stateDisposed)
	s.upstream.Dispose()
}

// IsStopped reports whether the observer has completed or been disposed.
func (s *SafeObserver[T]) IsStopped() bool {
	return s.state.Load() != stateActive
}

// IsDisposed reports whether Dispose was called before completion.
func (s *SafeObserver[T]) IsDisposed() bool {
	return s.state.Load() == stateDisposed
}
