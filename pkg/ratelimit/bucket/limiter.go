package bucket

import (
	"errors"
	"math"
	"sync"
	"time"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/timing"
)

// Limit is the sustained number of tokens added per second.
// A zero Limit adds none; Inf grants every request.
type Limit float64

// Inf is the infinite rate limit.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// ErrLimitExceeded is returned by WaitN when the request can never be
// satisfied at the current rate and burst.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Config holds configuration options for a Bucket.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens the bucket holds.
	Burst int

	// InitialTokens is the number of tokens to start with. Negative means a
	// full bucket.
	InitialTokens int

	// TimeProvider supplies the clock and the wait timers. Nil means
	// timing.System.
	TimeProvider timing.TimeProvider

	// Name labels metrics.
	Name string

	// Metrics receives limiter instrumentation. Nil disables metrics.
	Metrics *metrics.Registry
}

// Bucket is a token bucket rate limiter. It is safe for concurrent use.
type Bucket struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time

	tp      timing.TimeProvider
	name    string
	metrics *metrics.Registry
}

// New creates a Bucket refilling at rate up to burst tokens, starting full.
func New(rate Limit, burst int) (*Bucket, error) {
	return NewWithConfig(Config{
		Rate:          rate,
		Burst:         burst,
		InitialTokens: -1,
	})
}

// NewWithConfig creates a Bucket from config.
func NewWithConfig(config Config) (*Bucket, error) {
	if config.Rate < 0 || math.IsNaN(float64(config.Rate)) {
		return nil, rxerrors.NewValidationError("bucket", "rate", float64(config.Rate), "cannot be negative").
			WithHint("use 0 to stop refilling or bucket.Inf for no limit")
	}
	if config.Burst <= 0 {
		return nil, rxerrors.NewValidationError("bucket", "burst", config.Burst, "must be positive").
			WithHint("burst is the number of tokens that can be consumed at once")
	}

	tp := timing.OrSystem(config.TimeProvider)
	tokens := float64(config.InitialTokens)
	if config.InitialTokens < 0 || config.InitialTokens > config.Burst {
		tokens = float64(config.Burst)
	}
	name := config.Name
	if name == "" {
		name = "default"
	}

	return &Bucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     tokens,
		lastUpdate: tp.Now(),
		tp:         tp,
		name:       name,
		metrics:    config.Metrics,
	}, nil
}

// Reservation is a grant of tokens that becomes usable at a point in time.
type Reservation struct {
	b         *Bucket
	ok        bool
	tokens    int
	timeToAct time.Time
	once      sync.Once
}

// OK reports whether the bucket can honor the reservation.
func (r *Reservation) OK() bool {
	return r.ok
}

// Delay returns how long the holder must wait before acting.
func (r *Reservation) Delay() time.Duration {
	return r.DelayFrom(r.b.tp.Now())
}

// DelayFrom returns the wait measured from now. It is zero for a reservation
// that is not OK.
func (r *Reservation) DelayFrom(now time.Time) time.Duration {
	if !r.ok {
		return 0
	}
	if d := r.timeToAct.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Cancel returns the reserved tokens to the bucket. Only the first call has
// an effect.
func (r *Reservation) Cancel() {
	if !r.ok || r.tokens == 0 {
		return
	}
	r.once.Do(func() { r.b.restore(r.tokens) })
}
