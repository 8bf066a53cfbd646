package bucket

import (
	"context"
	"fmt"
	"math"
	"time"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/timing"
)

// Allow reports whether one token is available now and takes it if so.
func (b *Bucket) Allow() bool {
	return b.AllowN(1)
}

// AllowN reports whether n tokens are available now and takes them if so.
func (b *Bucket) AllowN(n int) bool {
	ok := b.reserveN(b.tp.Now(), n, 0).ok
	b.record(ok)
	return ok
}

// Wait blocks until one token is available.
func (b *Bucket) Wait(ctx context.Context) error {
	return b.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available, on the bucket's TimeProvider.
// If ctx ends first the reservation is returned and ctx.Err() is reported.
func (b *Bucket) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := b.tp.Now()
	r := b.reserveN(now, n, math.MaxInt64)
	if !r.ok {
		b.record(false)
		return rxerrors.NewOperationError("bucket", "WaitN",
			fmt.Errorf("%w: %d tokens at rate %g burst %d", ErrLimitExceeded, n, float64(b.Limit()), b.Burst()))
	}

	delay := r.DelayFrom(now)
	if err := timing.Delay(ctx, b.tp, delay); err != nil {
		r.Cancel()
		return err
	}
	if delay > 0 && b.metrics != nil {
		b.metrics.LimiterWait.WithLabelValues(b.name).Observe(delay.Seconds())
	}
	b.record(true)
	return nil
}

// Reserve reserves one token. See ReserveN.
func (b *Bucket) Reserve() *Reservation {
	return b.ReserveN(1)
}

// ReserveN reserves n tokens, borrowing against future refill if needed.
// The caller must wait Delay before acting, or Cancel the reservation.
func (b *Bucket) ReserveN(n int) *Reservation {
	return b.reserveN(b.tp.Now(), n, math.MaxInt64)
}

// SetLimit changes the refill rate, keeping tokens accrued so far.
func (b *Bucket) SetLimit(limit Limit) error {
	if limit < 0 || math.IsNaN(float64(limit)) {
		return rxerrors.NewValidationError("bucket", "rate", float64(limit), "cannot be negative")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.tp.Now())
	b.limit = limit
	return nil
}

// SetBurst changes the capacity, discarding tokens above it.
func (b *Bucket) SetBurst(burst int) error {
	if burst <= 0 {
		return rxerrors.NewValidationError("bucket", "burst", burst, "must be positive")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.tp.Now())
	b.burst = burst
	b.tokens = math.Min(b.tokens, float64(burst))
	return nil
}

// Limit returns the current refill rate.
func (b *Bucket) Limit() Limit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit
}

// Burst returns the current capacity.
func (b *Bucket) Burst() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.burst
}

// Tokens returns the tokens available now. It is negative while
// reservations are outstanding against future refill.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.tp.Now())
	return b.tokens
}

func (b *Bucket) reserveN(now time.Time, n int, maxWait time.Duration) *Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &Reservation{b: b, tokens: n, timeToAct: now}
	switch {
	case n <= 0:
		r.ok, r.tokens = true, 0
		return r
	case b.limit == Inf:
		r.ok = true
		return r
	case n > b.burst:
		return r
	}

	b.refill(now)
	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		r.ok = true
		return r
	}
	if b.limit == 0 {
		return r
	}

	wait := time.Duration(float64(time.Second) * (float64(n) - b.tokens) / float64(b.limit))
	if wait > maxWait {
		return r
	}
	b.tokens -= float64(n)
	r.ok = true
	r.timeToAct = now.Add(wait)
	return r
}

// refill credits tokens for the time elapsed since the last update.
func (b *Bucket) refill(now time.Time) {
	switch {
	case b.limit == Inf:
		b.tokens = float64(b.burst)
	case b.limit > 0:
		if elapsed := now.Sub(b.lastUpdate); elapsed > 0 {
			b.tokens = math.Min(b.tokens+elapsed.Seconds()*float64(b.limit), float64(b.burst))
		}
	}
	if now.After(b.lastUpdate) {
		b.lastUpdate = now
	}
}

func (b *Bucket) restore(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.tp.Now())
	b.tokens = math.Min(b.tokens+float64(n), float64(b.burst))
}

func (b *Bucket) record(allowed bool) {
	if b.metrics == nil {
		return
	}
	if allowed {
		b.metrics.LimiterAllowed.WithLabelValues(b.name).Inc()
		return
	}
	b.metrics.LimiterDenied.WithLabelValues(b.name).Inc()
}
