package disposable

import (
	"context"
	"fmt"
	"io"
	"sync"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// Disposable represents a releasable resource such as a subscription, a
// pending timer or a cancellation scope.
//
// Dispose must be idempotent and safe to call concurrently, and it must never
// panic back into the caller.
type Disposable interface {
	Dispose()
}

// Empty is a Disposable that owns nothing.
var Empty Disposable = emptyDisposable{}

type emptyDisposable struct{}

func (emptyDisposable) Dispose() {}

// funcDisposable runs its release function at most once.
type funcDisposable struct {
	once    sync.Once
	release func()
}

// NewFunc returns a Disposable that calls release on the first Dispose.
// A nil release yields Empty.
func NewFunc(release func()) Disposable {
	if release == nil {
		return Empty
	}
	return &funcDisposable{release: release}
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		run(d.release)
		d.release = nil
	})
}

// FromCancel returns a Disposable that cancels a context when disposed.
func FromCancel(cancel context.CancelFunc) Disposable {
	return NewFunc(cancel)
}

// FromCloser returns a Disposable that closes c when disposed. Errors returned
// by Close are routed to the unhandled error sink.
func FromCloser(c io.Closer) Disposable {
	if c == nil {
		return Empty
	}
	return NewFunc(func() {
		if err := c.Close(); err != nil {
			rxerrors.HandleUnhandled(rxerrors.NewOperationError("disposable", "Close", err))
		}
	})
}

// Combine returns a Disposable that disposes every d in order.
func Combine(ds ...Disposable) Disposable {
	return NewComposite(ds...)
}

// Dispose disposes d if it is non-nil, shielding the caller from panics.
func Dispose(d Disposable) {
	if d == nil {
		return
	}
	run(d.Dispose)
}

// run invokes f and routes a panic to the unhandled error sink.
func run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			rxerrors.HandleUnhandled(rxerrors.NewOperationError("disposable", "Dispose",
				fmt.Errorf("release panicked: %w", rxerrors.NewPanicError(r))))
		}
	}()
	f()
}
