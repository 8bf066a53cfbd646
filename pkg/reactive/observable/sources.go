package observable

import (
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
)

// Return emits value and completes.
func Return[T any](value T) Observable[T] {
	return FromSlice([]T{value})
}

// Empty completes immediately without emitting.
func Empty[T any]() Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		observer.OnCompleted(Success)
		return disposable.Empty
	})
}

// Never emits nothing and never completes.
func Never[T any]() Observable[T] {
	return Func[T](func(Observer[T]) disposable.Disposable {
		return disposable.Empty
	})
}

// Throw completes immediately with a failure carrying err.
func Throw[T any](err error) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		observer.OnCompleted(Failure(err))
		return disposable.Empty
	})
}

// FromSlice emits every element of slice synchronously during Subscribe and
// then completes. Emission stops early if the observer stops.
func FromSlice[T any](slice []T) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		safe := NewSafeObserver(observer)
		for _, v := range slice {
			if safe.IsStopped() {
				return safe
			}
			safe.OnNext(v)
		}
		safe.OnCompleted(Success)
		return safe
	})
}

// FromChannel emits values received from ch on a dedicated goroutine and
// completes when ch is closed. Disposing the subscription stops the goroutine;
// values still buffered in ch are left there.
func FromChannel[T any](ch <-chan T) Observable[T] {
	return Func[T](func(observer Observer[T]) disposable.Disposable {
		safe := NewSafeObserver(observer)
		done := make(chan struct{})
		safe.SetUpstream(disposable.NewFunc(func() { close(done) }))

		go func() {
			for {
				select {
				case <-done:
					return
				case v, ok := <-ch:
					if !ok {
						safe.OnCompleted(Success)
						return
					}
					safe.OnNext(v)
				}
			}
		}()

		return safe
	})
}
