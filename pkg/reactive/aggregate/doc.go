/*
Package aggregate bridges a push sequence into a single awaited result.

Each entry point subscribes an Aggregator to a source and returns a
future.Future that resolves exactly once:

  - succeeded, with the folded value, when the source completes successfully
  - failed, when the source reports an item error through OnErrorResume or
    completes with a failure
  - canceled, when the supplied context ends first

The first of these to happen wins and the source subscription is released.

Basic usage:

	total, err := aggregate.Sum(ctx, amounts).Await(ctx)
	if err != nil {
		return err
	}

Numeric sums are generic over every built-in integer, floating point and
complex kind. Types with their own Add method, such as decimal.Decimal, use
SumAdders or SumDecimal. Count, Average, Min, Max, ToSlice and Aggregate are
built on the same Aggregator.
*/
package aggregate
