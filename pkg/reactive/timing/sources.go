package timing

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// After emits the provider's time once d has elapsed, then completes.
func After(d time.Duration, tp TimeProvider) observable.Observable[time.Time] {
	tp = OrSystem(tp)
	return observable.Create(func(o observable.Observer[time.Time]) disposable.Disposable {
		t := tp.AfterFunc(d, func() {
			o.OnNext(tp.Now())
			o.OnCompleted(observable.Success)
		})
		return disposable.NewFunc(func() { t.Stop() })
	})
}

// Interval emits 0, 1, 2, ... every period until the subscription is
// disposed. It never completes.
func Interval(period time.Duration, tp TimeProvider) (observable.Observable[int64], error) {
	if err := validation.ValidatePositiveDuration("timing", "period", period); err != nil {
		return nil, err
	}
	tp = OrSystem(tp)

	return observable.Create(func(o observable.Observer[int64]) disposable.Disposable {
		var (
			pending disposable.Serial
			mu      sync.Mutex
			n       int64
		)
		var tick func()
		schedule := func() {
			t := tp.AfterFunc(period, tick)
			pending.Set(disposable.NewFunc(func() { t.Stop() }))
		}
		tick = func() {
			mu.Lock()
			v := n
			n++
			mu.Unlock()

			o.OnNext(v)
			schedule()
		}

		schedule()
		return &pending
	}), nil
}

// Cron emits the scheduled fire time each time expr comes due, evaluated
// against tp. The expression accepts an optional leading seconds field and
// descriptors such as "@hourly" or "@every 5m". It never completes.
func Cron(expr string, tp TimeProvider) (observable.Observable[time.Time], error) {
	if err := validation.ValidateNotEmpty("timing", "cron expression", expr); err != nil {
		return nil, err
	}
	schedule, err := ParseCron(expr)
	if err != nil {
		return nil, err
	}
	tp = OrSystem(tp)

	return observable.Create(func(o observable.Observer[time.Time]) disposable.Disposable {
		var pending disposable.Serial

		var arm func(from time.Time)
		arm = func(from time.Time) {
			next := schedule.Next(from)
			if next.IsZero() {
				o.OnCompleted(observable.Success)
				return
			}
			t := tp.AfterFunc(next.Sub(tp.Now()), func() {
				o.OnNext(next)
				arm(next)
			})
			pending.Set(disposable.NewFunc(func() { t.Stop() }))
		}

		arm(tp.Now())
		return &pending
	}), nil
}
