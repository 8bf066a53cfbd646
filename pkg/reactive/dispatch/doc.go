/*
Package dispatch maps a stream of synchronous pushes onto concurrent,
cancellable units of work.

A Coordinator sits between a source and a downstream Observer. For each value
it receives it runs a work function on its own goroutine, with a context
derived from the coordinator's scope. OnNext never blocks; what happens to a
value that arrives while work is running is decided by the Strategy:

  - Sequential: one unit at a time, later values queued in arrival order
  - Drop: one unit at a time, values that arrive while busy are discarded
  - Parallel: every value starts immediately, optionally bounded by
    MaxConcurrency with excess values queued
  - Switch: a new value cancels the running unit and replaces it
  - ThrottleFirstLast: the first value runs, the latest value that arrived
    while busy runs next

Basic usage:

	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Drop

	sub, err := dispatch.Subscribe(clicks, func(ctx context.Context, c Click) error {
		return save(ctx, c)
	}, cfg, logError, nil)
	if err != nil {
		return err
	}
	defer sub.Dispose()

Select is the value-producing form: each unit returns a result which is
emitted downstream.

Errors and cancellation:

An error returned by the work function, or a panic recovered from it as an
*errors.PanicError, is delivered to downstream OnErrorResume and the
coordinator carries on as if the unit had succeeded. A unit whose context was
canceled, by Dispose, by Switch or by CancelOnCompleted, reports nothing.

Pacing:

Config.Limiter, such as a *bucket.Bucket, is waited on by each unit before
its work function runs. The wait uses the unit's context, so a unit canceled
while waiting reports nothing, and a bucket.Bucket gets the token back.

Completion:

When the source completes, the coordinator stops accepting values, lets
queued and running units finish, and then completes downstream exactly once.
Set Config.CancelOnCompleted to cancel outstanding work and complete at once
instead.

Disposing a Coordinator cancels every running unit before Dispose returns,
discards queued values and disposes the upstream subscription.
*/
package dispatch
