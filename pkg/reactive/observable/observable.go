package observable

import (
	"errors"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
)

// Observer is the sink a stream pushes into.
//
// A source calls OnNext and OnErrorResume zero or more times and OnCompleted
// exactly once, never concurrently, and makes no further calls after
// OnCompleted. OnErrorResume reports a per-item failure and does not end the
// sequence.
type Observer[T any] interface {
	OnNext(value T)
	OnErrorResume(err error)
	OnCompleted(result Result)
}

// Observable is a push-based source. Each call to Subscribe starts an
// independent subscription; disposing the returned handle stops delivery to
// that observer only.
type Observable[T any] interface {
	Subscribe(observer Observer[T]) disposable.Disposable
}

// errNilFailure stands in for a nil error passed to Failure.
var errNilFailure = errors.New("failure without error")

// Result is the terminal outcome carried by OnCompleted: success, or failure
// with an error.
type Result struct {
	err error
}

// Success is the successful completion Result.
var Success = Result{}

// Failure returns a failed Result carrying err.
func Failure(err error) Result {
	if err == nil {
		err = errNilFailure
	}
	return Result{err: err}
}

// IsSuccess reports whether the sequence completed normally.
func (r Result) IsSuccess() bool { return r.err == nil }

// IsFailure reports whether the sequence terminated with an error.
func (r Result) IsFailure() bool { return r.err != nil }

// Err returns the terminal error, or nil on success.
func (r Result) Err() error { return r.err }

func (r Result) String() string {
	if r.err == nil {
		return "Success"
	}
	return "Failure(" + r.err.Error() + ")"
}

// Func adapts a subscribe function to the Observable interface. Unlike
// Create, it does not guard the observer.
type Func[T any] func(observer Observer[T]) disposable.Disposable

// Subscribe calls f(observer).
func (f Func[T]) Subscribe(observer Observer[T]) disposable.Disposable {
	d := f(observer)
	if d == nil {
		return disposable.Empty
	}
	return d
}

// Create returns an Observable whose subscriptions run subscribe against a
// SafeObserver, so a misbehaving producer cannot push after completion.
// The returned subscription disposes both the guard and whatever subscribe
// returned.
func Create[T any](subscribe func(observer Observer[T]) disposable.Disposable) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		safe := NewSafeObserver(observer)
		safe.SetUpstream(subscribe(safe))
		return safe
	})
}

// Subscribe subscribes observer to src through a SafeObserver and returns
// the guard, which is also the subscription handle.
func Subscribe[T any](src Observable[T], observer Observer[T]) *SafeObserver[T] {
	safe := NewSafeObserver(observer)
	safe.SetUpstream(src.Subscribe(safe))
	return safe
}

// SubscribeFunc subscribes callbacks to src. See NewObserver for nil handling.
func SubscribeFunc[T any](src Observable[T], onNext func(T), onErrorResume func(error), onCompleted func(Result)) disposable.Disposable {
	return Subscribe(src, NewObserver(onNext, onErrorResume, onCompleted))
}

// NewObserver builds an Observer from callbacks. A nil onNext ignores values.
// A nil onErrorResume routes errors to the unhandled error sink, and a nil
// onCompleted does the same for failed completions.
func NewObserver[T any](onNext func(T), onErrorResume func(error), onCompleted func(Result)) Observer[T] {
	return &funcObserver[T]{
		onNext:        onNext,
		onErrorResume: onErrorResume,
		onCompleted:   onCompleted,
	}
}

type funcObserver[T any] struct {
	onNext        func(T)
	onErrorResume func(error)
	onCompleted   func(Result)
}

func (o *funcObserver[T]) OnNext(value T) {
	if o.onNext != nil {
		o.onNext(value)
	}
}

func (o *funcObserver[T]) OnErrorResume(err error) {
	if o.onErrorResume != nil {
		o.onErrorResume(err)
		return
	}
	rxerrors.HandleUnhandled(err)
}

func (o *funcObserver[T]) OnCompleted(result Result) {
	if o.onCompleted != nil {
		o.onCompleted(result)
		return
	}
	if result.IsFailure() {
		rxerrors.HandleUnhandled(result.Err())
	}
}
