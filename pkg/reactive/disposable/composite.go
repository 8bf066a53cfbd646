package disposable

import (
	"sync"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// Composite owns a dynamic set of child disposables. Disposing the composite
// disposes every child exactly once; children added afterwards are disposed
// immediately.
//
// Children are tracked by identity, so they must be comparable values
// (pointers in practice).
type Composite struct {
	mu       sync.Mutex
	disposed bool
	items    []Disposable
}

// NewComposite creates a Composite owning ds.
func NewComposite(ds ...Disposable) *Composite {
	items := make([]Disposable, 0, len(ds))
	for _, d := range ds {
		if d != nil {
			items = append(items, d)
		}
	}
	return &Composite{items: items}
}

// Add adds d to the composite, or disposes it immediately if the composite
// has already been disposed.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		Dispose(d)
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Remove removes d from the composite and disposes it. It reports whether d
// was a member.
func (c *Composite) Remove(d Disposable) bool {
	if d == nil {
		return false
	}

	c.mu.Lock()
	idx := -1
	for i, item := range c.items {
		if item == d {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.mu.Unlock()

	Dispose(d)
	return true
}

// Len returns the number of children currently owned.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// IsDisposed reports whether the composite has been disposed.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Clear disposes and removes every child without disposing the composite.
func (c *Composite) Clear() {
	c.mu.Lock()
	items := c.items
	c.items = nil
	c.mu.Unlock()

	disposeAll(items)
}

// Dispose disposes every child and marks the composite disposed.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	disposeAll(items)
}

func disposeAll(items []Disposable) {
	for _, d := range items {
		Dispose(d)
	}
}

// SingleAssignment holds one disposable that may be assigned after the owner
// has already been disposed, in which case it is released on assignment.
type SingleAssignment struct {
	mu       sync.Mutex
	current  Disposable
	assigned bool
	disposed bool
}

// Set assigns d. A second assignment returns ErrAlreadyAssigned and disposes
// the rejected d. If the holder is already disposed, d is disposed at once.
func (s *SingleAssignment) Set(d Disposable) error {
	s.mu.Lock()
	if s.assigned {
		s.mu.Unlock()
		Dispose(d)
		return rxerrors.ErrAlreadyAssigned
	}
	s.assigned = true
	if s.disposed {
		s.mu.Unlock()
		Dispose(d)
		return nil
	}
	s.current = d
	s.mu.Unlock()
	return nil
}

// IsDisposed reports whether Dispose has been called.
func (s *SingleAssignment) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose releases the assigned disposable, if any.
func (s *SingleAssignment) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	d := s.current
	s.current = nil
	s.mu.Unlock()

	Dispose(d)
}

// Serial holds one replaceable disposable. Replacing it disposes the previous
// value; once Serial is disposed, any new value is disposed immediately.
type Serial struct {
	mu       sync.Mutex
	current  Disposable
	disposed bool
}

// Set replaces the current disposable with d and disposes the old one.
func (s *Serial) Set(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		Dispose(d)
		return
	}
	old := s.current
	s.current = d
	s.mu.Unlock()

	Dispose(old)
}

// IsDisposed reports whether Dispose has been called.
func (s *Serial) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose releases the current disposable and rejects future ones.
func (s *Serial) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	d := s.current
	s.current = nil
	s.mu.Unlock()

	Dispose(d)
}
