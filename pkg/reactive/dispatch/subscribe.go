package dispatch

import (
	"context"

	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Subscribe subscribes to src and runs fn for each value under config's
// strategy. Unit errors go to onErrorResume and the final Result to
// onCompleted; nil callbacks route failures to the unhandled error sink.
//
// The returned Coordinator is the subscription handle: disposing it cancels
// running units and releases src.
func Subscribe[T any](
	src observable.Observable[T],
	fn func(ctx context.Context, value T) error,
	config Config,
	onErrorResume func(error),
	onCompleted func(observable.Result),
) (*Coordinator[T, struct{}], error) {
	if err := validation.ValidateNotNil("dispatch", "source", src); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("dispatch", "fn", fn); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	downstream := observable.NewObserver[struct{}](nil, onErrorResume, onCompleted)
	work := func(ctx context.Context, value T) (struct{}, error) {
		return struct{}{}, fn(ctx, value)
	}

	c := newCoordinator(downstream, work, config, false)
	c.SetUpstream(src.Subscribe(c))
	return c, nil
}

// Select returns an Observable that, per subscription, runs fn for each
// value of src under config's strategy and emits each result. Errors from fn
// are delivered through OnErrorResume; completion follows the source.
func Select[T, R any](
	src observable.Observable[T],
	fn func(ctx context.Context, value T) (R, error),
	config Config,
) (observable.Observable[R], error) {
	if err := validation.ValidateNotNil("dispatch", "source", src); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("dispatch", "fn", fn); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return observable.Func[R](func(observer observable.Observer[R]) disposable.Disposable {
		c := newCoordinator(observer, fn, config, true)
		c.SetUpstream(src.Subscribe(c))
		return c
	}), nil
}
