package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/rxflow/pkg/reactive/timing"
)

// FakeTimeProvider implements timing.TimeProvider with controllable time.
// Timers fire synchronously, in due order, on the goroutine calling Advance.
type FakeTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	p    *FakeTimeProvider
	when time.Time
	f    func()
	done bool
}

// NewFakeTimeProvider creates a FakeTimeProvider starting at the given time.
// If zero time is provided, uses current time.
func NewFakeTimeProvider(start time.Time) *FakeTimeProvider {
	if start.IsZero() {
		start = time.Now()
	}
	return &FakeTimeProvider{now: start}
}

// Now returns the current fake time.
func (p *FakeTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// AfterFunc registers f to run once fake time reaches Now()+d. A non-positive
// d runs f immediately on its own goroutine, like time.AfterFunc.
func (p *FakeTimeProvider) AfterFunc(d time.Duration, f func()) timing.Timer {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := &fakeTimer{p: p, when: p.now.Add(d), f: f}
	if d <= 0 {
		t.done = true
		go f()
		return t
	}
	p.timers = append(p.timers, t)
	return t
}

// Advance moves fake time forward by d, firing every timer that becomes due.
// Timers registered by fired callbacks also fire if they fall within d.
func (p *FakeTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	target := p.now.Add(d)
	p.mu.Unlock()

	for {
		p.mu.Lock()
		next := p.popDueLocked(target)
		if next == nil {
			p.now = target
			p.mu.Unlock()
			return
		}
		p.now = next.when
		p.mu.Unlock()

		next.f()
	}
}

// Set moves fake time to t without firing timers that become due.
func (p *FakeTimeProvider) Set(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = t
}

// Timers returns the number of registered timers that have not fired or stopped.
func (p *FakeTimeProvider) Timers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// WaitForTimers blocks until at least n timers are pending, failing the test
// after TestTimeout. Use it before Advance so work started on other
// goroutines has registered its delays.
func (p *FakeTimeProvider) WaitForTimers(t *testing.T, n int) {
	t.Helper()
	Eventually(t, func() bool { return p.Timers() >= n }, TestTimeout, time.Millisecond)
}

// popDueLocked removes and returns the earliest timer due at or before target.
func (p *FakeTimeProvider) popDueLocked(target time.Time) *fakeTimer {
	idx := -1
	for i, t := range p.timers {
		if t.when.After(target) {
			continue
		}
		if idx < 0 || t.when.Before(p.timers[idx].when) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := p.timers[idx]
	p.timers = append(p.timers[:idx], p.timers[idx+1:]...)
	t.done = true
	return t
}

// Stop prevents the timer from firing. It reports false if the timer had
// already fired or been stopped.
func (t *fakeTimer) Stop() bool {
	p := t.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, pending := range p.timers {
		if pending == t {
			p.timers = append(p.timers[:i], p.timers[i+1:]...)
			break
		}
	}
	return true
}
