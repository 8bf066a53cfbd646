// Package timing provides the injectable time service used by rxflow and the
// time-based sources built on it.
//
// TimeProvider abstracts "run this callback after a duration, unless
// canceled". System uses the runtime clock; tests substitute a fake that
// advances on demand. Delay is the cancellable sleep used inside units of
// work, and After, Interval and Cron are Observables whose subscriptions
// stop their pending timer when disposed.
//
// Cron expressions follow github.com/robfig/cron/v3 with an optional seconds
// field:
//
//	ticks, err := timing.Cron("*/10 * * * * *", timing.System)
//	if err != nil {
//		return err
//	}
//	sub := observable.SubscribeFunc(ticks, func(at time.Time) { refresh(at) }, nil, nil)
//	defer sub.Dispose()
package timing
