package dispatch

import (
	"context"
	"log/slog"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/metrics"
)

// Limiter paces units of work. Wait blocks until the unit may run, or
// returns an error if it may not. *bucket.Bucket and
// *distributed.RedisBucket implement it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Config holds configuration options for a Coordinator.
type Config struct {
	// Strategy decides what happens to values that arrive while busy.
	Strategy Strategy

	// MaxConcurrency bounds the number of units running at once under
	// Parallel. Zero means no limit. Ignored by the other strategies.
	MaxConcurrency int

	// CancelOnCompleted makes upstream completion cancel running units,
	// discard queued values and complete downstream immediately. By default
	// the coordinator drains first and completes downstream once idle.
	CancelOnCompleted bool

	// Context is the parent of every unit's context. Canceling it cancels all
	// running units. Nil means context.Background().
	Context context.Context

	// Limiter, if set, is waited on by every unit, with the unit's context,
	// before its function runs. A unit canceled while waiting reports
	// nothing; any other Wait error is delivered through OnErrorResume.
	Limiter Limiter

	// Name labels metrics and log records.
	Name string

	// Metrics receives dispatch instrumentation. Nil disables metrics.
	Metrics *metrics.Registry

	// Logger receives lifecycle records at debug level. Nil means
	// slog.Default().
	Logger *slog.Logger

	// OnDrop is called with every value discarded by the Drop strategy, or
	// superseded under ThrottleFirstLast.
	OnDrop func(value any)
}

// DefaultConfig returns the default configuration: Sequential, unbounded,
// drain before completing.
func DefaultConfig() Config {
	return Config{
		Strategy: Sequential,
		Name:     "default",
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if !c.Strategy.Valid() {
		return rxerrors.NewValidationError("dispatch", "strategy", int(c.Strategy), "unknown strategy").
			WithHint("use one of Sequential, Drop, Parallel, Switch, ThrottleFirstLast")
	}
	return validation.ValidateNonNegative("dispatch", "max_concurrency", c.MaxConcurrency)
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
