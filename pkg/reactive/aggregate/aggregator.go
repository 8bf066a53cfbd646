package aggregate

import (
	"context"
	"fmt"

	rxcontext "github.com/vnykmshr/rxflow/pkg/common/context"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/future"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Options configures an aggregator.
type Options struct {
	// Name labels metrics. Each entry point supplies its own default.
	Name string

	// Metrics receives resolution and item counts. Nil disables metrics.
	Metrics *metrics.Registry
}

// Option mutates Options.
type Option func(*Options)

// WithName overrides the aggregator's metrics label.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithMetrics enables instrumentation on reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Options) { o.Metrics = reg }
}

// Aggregator is an Observer that folds every value into an accumulator of
// type A and resolves a Future[R] once.
//
// OnErrorResume and a failed completion fail the future; a successful
// completion resolves it with the finished accumulator; cancellation of the
// context passed to Subscribe cancels it. Whichever happens first wins and
// the upstream subscription is released.
type Aggregator[T, A, R any] struct {
	opts     Options
	acc      A
	step     func(A, T) A
	finish   func(A) (R, error)
	result   *future.Future[R]
	upstream disposable.SingleAssignment
	stop     func() bool
}

// New creates an Aggregator starting from seed. step folds one value into
// the accumulator; finish turns the final accumulator into the result. A
// panic in step fails the future like an item error.
func New[T, A, R any](seed A, step func(A, T) A, finish func(A) (R, error), opts ...Option) *Aggregator[T, A, R] {
	a := &Aggregator[T, A, R]{
		opts:   Options{Name: "aggregate"},
		acc:    seed,
		step:   step,
		finish: finish,
		result: future.New[R](),
		stop:   func() bool { return false },
	}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a
}

// Future returns the aggregator's result.
func (a *Aggregator[T, A, R]) Future() *future.Future[R] {
	return a.result
}

// Subscribe wires the aggregator to src, canceling the future and releasing
// src if ctx ends before a terminal resolution. It returns the future.
func (a *Aggregator[T, A, R]) Subscribe(ctx context.Context, src observable.Observable[T]) *future.Future[R] {
	ctx = rxcontext.OrBackground(ctx)
	if ctx.Err() != nil {
		a.cancel()
		return a.result
	}

	a.stop = rxcontext.OnCancel(ctx, a.cancel)
	if err := a.upstream.Set(src.Subscribe(a)); err != nil {
		rxerrors.HandleUnhandled(rxerrors.NewOperationError("aggregate", "Subscribe", err))
	}
	return a.result
}

// Dispose releases the upstream subscription without resolving the future.
func (a *Aggregator[T, A, R]) Dispose() {
	a.upstream.Dispose()
}

// OnNext folds value into the accumulator. A fold error fails the future.
func (a *Aggregator[T, A, R]) OnNext(value T) {
	if a.result.State() != future.Pending {
		return
	}
	next, err := a.apply(value)
	if err != nil {
		a.fail(err)
		return
	}
	a.acc = next
	if m := a.opts.Metrics; m != nil {
		m.AggregateItems.WithLabelValues(a.opts.Name).Inc()
	}
}

// OnErrorResume fails the future with err.
func (a *Aggregator[T, A, R]) OnErrorResume(err error) {
	a.fail(err)
}

// OnCompleted resolves the future from the accumulator, or fails it when
// result is a failure.
func (a *Aggregator[T, A, R]) OnCompleted(result observable.Result) {
	if result.IsFailure() {
		a.fail(result.Err())
		return
	}
	if a.result.State() != future.Pending {
		return
	}

	value, err := a.finish(a.acc)
	if err != nil {
		a.fail(err)
		return
	}
	if a.result.TrySetResult(value) {
		a.resolved("succeeded")
	}
}

func (a *Aggregator[T, A, R]) apply(value T) (next A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.NewOperationError("aggregate", a.opts.Name,
				fmt.Errorf("selector panicked: %w", rxerrors.NewPanicError(r)))
		}
	}()
	return a.step(a.acc, value), nil
}

func (a *Aggregator[T, A, R]) fail(err error) {
	if a.result.TrySetError(err) {
		a.resolved("failed")
	}
}

func (a *Aggregator[T, A, R]) cancel() {
	if a.result.TrySetCanceled() {
		a.resolved("canceled")
	}
}

// resolved runs once, after the winning transition. A cancellation arrives
// from the context callback itself, so there is nothing left to stop.
func (a *Aggregator[T, A, R]) resolved(outcome string) {
	if outcome != "canceled" {
		a.stop()
	}
	a.upstream.Dispose()
	if m := a.opts.Metrics; m != nil {
		m.AggregateResolutions.WithLabelValues(a.opts.Name, outcome).Inc()
	}
}
