package aggregate

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/future"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Number is any built-in numeric kind that supports +.
type Number interface {
	constraints.Integer | constraints.Float | constraints.Complex
}

// Real is any built-in numeric kind convertible to float64.
type Real interface {
	constraints.Integer | constraints.Float
}

// Adder is any type with its own addition, such as decimal.Decimal.
type Adder[T any] interface {
	Add(T) T
}

func identity[A any](a A) (A, error) { return a, nil }

func withDefaultName(name string, opts []Option) []Option {
	return append([]Option{WithName(name)}, opts...)
}

// Sum resolves to the sum of every value in src.
func Sum[T Number](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[T] {
	return SumBy(ctx, src, func(v T) T { return v }, withDefaultName("sum", opts)...)
}

// SumBy resolves to the sum of selector(v) over every value in src.
func SumBy[T any, R Number](ctx context.Context, src observable.Observable[T], selector func(T) R, opts ...Option) *future.Future[R] {
	var zero R
	step := func(acc R, v T) R { return acc + selector(v) }
	return New(zero, step, identity[R], withDefaultName("sum", opts)...).Subscribe(ctx, src)
}

// SumAdders resolves to zero.Add(v1).Add(v2)... over every value in src.
func SumAdders[T Adder[T]](ctx context.Context, src observable.Observable[T], zero T, opts ...Option) *future.Future[T] {
	step := func(acc T, v T) T { return acc.Add(v) }
	return New(zero, step, identity[T], withDefaultName("sum", opts)...).Subscribe(ctx, src)
}

// SumDecimal resolves to the exact fixed-point sum of src.
func SumDecimal(ctx context.Context, src observable.Observable[decimal.Decimal], opts ...Option) *future.Future[decimal.Decimal] {
	return SumAdders(ctx, src, decimal.Zero, withDefaultName("sum_decimal", opts)...)
}

// Count resolves to the number of values in src.
func Count[T any](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[int64] {
	step := func(n int64, _ T) int64 { return n + 1 }
	return New(int64(0), step, identity[int64], withDefaultName("count", opts)...).Subscribe(ctx, src)
}

type mean struct {
	sum float64
	n   int64
}

// Average resolves to the arithmetic mean of src. An empty sequence fails
// with ErrEmptySequence.
func Average[T Real](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[float64] {
	step := func(m mean, v T) mean { return mean{sum: m.sum + float64(v), n: m.n + 1} }
	finish := func(m mean) (float64, error) {
		if m.n == 0 {
			return 0, rxerrors.ErrEmptySequence
		}
		return m.sum / float64(m.n), nil
	}
	return New(mean{}, step, finish, withDefaultName("average", opts)...).Subscribe(ctx, src)
}

type extreme[T any] struct {
	value T
	ok    bool
}

// Min resolves to the smallest value in src. An empty sequence fails with
// ErrEmptySequence.
func Min[T constraints.Ordered](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[T] {
	return pick(ctx, src, func(candidate, current T) bool { return candidate < current }, withDefaultName("min", opts))
}

// Max resolves to the largest value in src. An empty sequence fails with
// ErrEmptySequence.
func Max[T constraints.Ordered](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[T] {
	return pick(ctx, src, func(candidate, current T) bool { return candidate > current }, withDefaultName("max", opts))
}

func pick[T any](ctx context.Context, src observable.Observable[T], better func(candidate, current T) bool, opts []Option) *future.Future[T] {
	step := func(e extreme[T], v T) extreme[T] {
		if !e.ok || better(v, e.value) {
			return extreme[T]{value: v, ok: true}
		}
		return e
	}
	finish := func(e extreme[T]) (T, error) {
		if !e.ok {
			return e.value, rxerrors.ErrEmptySequence
		}
		return e.value, nil
	}
	return New(extreme[T]{}, step, finish, opts...).Subscribe(ctx, src)
}

// ToSlice resolves to every value of src in arrival order.
func ToSlice[T any](ctx context.Context, src observable.Observable[T], opts ...Option) *future.Future[[]T] {
	step := func(acc []T, v T) []T { return append(acc, v) }
	finish := func(acc []T) ([]T, error) {
		if acc == nil {
			acc = []T{}
		}
		return acc, nil
	}
	return New([]T(nil), step, finish, withDefaultName("to_slice", opts)...).Subscribe(ctx, src)
}

// Aggregate resolves to the left fold of fn over src starting from seed.
func Aggregate[T, A any](ctx context.Context, src observable.Observable[T], seed A, fn func(A, T) A, opts ...Option) *future.Future[A] {
	return New(seed, fn, identity[A], withDefaultName("aggregate", opts)...).Subscribe(ctx, src)
}
