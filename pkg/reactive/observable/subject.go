package observable

import (
	"sync"
	"sync/atomic"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
)

// Subject is both an Observer and a multicast Observable: values pushed into
// it are forwarded to every current subscriber, in subscription order.
//
// A subscriber arriving after completion receives the stored Result at once.
// Disposing the Subject completes current subscribers successfully and fails
// later subscriptions with ErrDisposed.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []*subjectEntry[T]
	nextID    uint64
	completed bool
	result    Result
	disposed  bool
}

// subjectEntry is one subscription. removed is set by the subscription's
// Dispose and checked before every delivery, so an entry taken in a snapshot
// is skipped once it has been disposed.
type subjectEntry[T any] struct {
	id       uint64
	observer Observer[T]
	removed  atomic.Bool
}

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers observer until the returned handle is disposed. A
// delivery in progress that has not reached observer yet skips it.
func (s *Subject[T]) Subscribe(observer Observer[T]) disposable.Disposable {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		observer.OnCompleted(Failure(rxerrors.ErrDisposed))
		return disposable.Empty
	}
	if s.completed {
		result := s.result
		s.mu.Unlock()
		observer.OnCompleted(result)
		return disposable.Empty
	}

	id := s.nextID
	s.nextID++
	e := &subjectEntry[T]{id: id, observer: observer}
	s.observers = append(s.observers, e)
	s.mu.Unlock()

	return disposable.NewFunc(func() {
		e.removed.Store(true)
		s.remove(id)
	})
}

// OnNext forwards value to every current subscriber.
func (s *Subject[T]) OnNext(value T) {
	for _, e := range s.snapshot() {
		if !e.removed.Load() {
			e.observer.OnNext(value)
		}
	}
}

// OnErrorResume forwards err to every current subscriber.
func (s *Subject[T]) OnErrorResume(err error) {
	for _, e := range s.snapshot() {
		if !e.removed.Load() {
			e.observer.OnErrorResume(err)
		}
	}
}

// OnCompleted completes every current subscriber and remembers result for
// late subscribers. Only the first call has any effect.
func (s *Subject[T]) OnCompleted(result Result) {
	s.mu.Lock()
	if s.completed || s.disposed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	s.result = result
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, e := range observers {
		if !e.removed.Load() {
			e.observer.OnCompleted(result)
		}
	}
}

// Dispose completes current subscribers and rejects future ones.
func (s *Subject[T]) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	wasCompleted := s.completed
	s.completed = true
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	if wasCompleted {
		return
	}
	for _, e := range observers {
		if !e.removed.Load() {
			e.observer.OnCompleted(Success)
		}
	}
}

// HasObservers reports whether any subscriber is registered.
func (s *Subject[T]) HasObservers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

// IsCompleted reports whether the Subject has completed or been disposed.
func (s *Subject[T]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

func (s *Subject[T]) snapshot() []*subjectEntry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed || len(s.observers) == 0 {
		return nil
	}
	return append([]*subjectEntry[T](nil), s.observers...)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}
