/*
Package observable defines the push-based source and sink contracts that the
rest of rxflow builds on.

An Observable delivers values to an Observer through three channels:

  - OnNext carries a value
  - OnErrorResume reports a per-item failure without ending the sequence
  - OnCompleted ends the sequence with a Result, exactly once

Nothing is delivered after OnCompleted. SafeObserver enforces this for any
Observer, and also owns the upstream subscription so that completion or
disposal releases it.

Basic usage:

	src := observable.FromSlice([]int{1, 2, 3})
	sub := observable.SubscribeFunc(src,
		func(v int) { fmt.Println(v) },
		nil,
		func(r observable.Result) { fmt.Println("done:", r) },
	)
	defer sub.Dispose()

Subject is a multicast hub that is both an Observer and an Observable. A
subscriber that arrives after the Subject has completed receives the stored
completion immediately.

Errors passed to a nil OnErrorResume callback, and failed completions with no
OnCompleted callback, are routed to errors.HandleUnhandled.
*/
package observable
