// Package observabletest provides a recording Observer for tests.
package observabletest

import (
	"sync"

	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Recorder is an Observer that records every notification it receives. It is
// safe for concurrent use.
type Recorder[T any] struct {
	mu            sync.Mutex
	notifications []observable.Notification[T]
	done          chan struct{}
	completions   int
}

// NewRecorder creates an empty Recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{done: make(chan struct{})}
}

func (r *Recorder[T]) OnNext(value T) {
	r.record(observable.Next(value))
}

func (r *Recorder[T]) OnErrorResume(err error) {
	r.record(observable.ErrorResume[T](err))
}

func (r *Recorder[T]) OnCompleted(result observable.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, observable.Completed[T](result))
	r.completions++
	if r.completions == 1 {
		close(r.done)
	}
}

func (r *Recorder[T]) record(n observable.Notification[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// Done is closed on the first OnCompleted.
func (r *Recorder[T]) Done() <-chan struct{} {
	return r.done
}

// Notifications returns a copy of everything recorded, in arrival order.
func (r *Recorder[T]) Notifications() []observable.Notification[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observable.Notification[T](nil), r.notifications...)
}

// Values returns the recorded OnNext values.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, n := range r.notifications {
		if n.Kind == observable.KindNext {
			out = append(out, n.Value)
		}
	}
	return out
}

// Errors returns the recorded OnErrorResume errors.
func (r *Recorder[T]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []error
	for _, n := range r.notifications {
		if n.Kind == observable.KindErrorResume {
			out = append(out, n.Err)
		}
	}
	return out
}

// Completions returns how many times OnCompleted was called.
func (r *Recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions
}

// Completed reports whether OnCompleted has been called.
func (r *Recorder[T]) Completed() bool {
	return r.Completions() > 0
}

// Result returns the first completion Result and whether there was one.
func (r *Recorder[T]) Result() (observable.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.Kind == observable.KindCompleted {
			return n.Result, true
		}
	}
	return observable.Result{}, false
}
