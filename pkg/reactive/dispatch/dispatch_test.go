package dispatch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/rxflow/internal/testutil"
	"github.com/vnykmshr/rxflow/pkg/ratelimit/bucket"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/metrics"
	"github.com/vnykmshr/rxflow/pkg/reactive/dispatch"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable/observabletest"
	"github.com/vnykmshr/rxflow/pkg/reactive/timing"
)

const unitDelay = 3 * time.Second

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// delayed returns a unit that waits unitDelay on tp and yields value*100.
func delayed(tp timing.TimeProvider) func(context.Context, int) (int, error) {
	return func(ctx context.Context, v int) (int, error) {
		if err := timing.Delay(ctx, tp, unitDelay); err != nil {
			return 0, err
		}
		return v * 100, nil
	}
}

func newCoordinator(t *testing.T, strategy dispatch.Strategy, fn func(context.Context, int) (int, error)) (*dispatch.Coordinator[int, int], *observabletest.Recorder[int]) {
	t.Helper()
	cfg := dispatch.DefaultConfig()
	cfg.Strategy = strategy
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, fn, cfg)
	testutil.AssertNoError(t, err)
	t.Cleanup(c.Dispose)
	return c, rec
}

func waitValues(t *testing.T, rec *observabletest.Recorder[int], want ...int) {
	t.Helper()
	testutil.AssertEventually(t, func() bool { return len(rec.Values()) == len(want) })
	got := rec.Values()
	testutil.AssertSliceEqual(t, got, want)
}

func waitIdle(t *testing.T, c *dispatch.Coordinator[int, int]) {
	t.Helper()
	testutil.AssertEventually(t, func() bool { return c.InFlight() == 0 })
}

func TestSequential_QueuesInArrivalOrder(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	c, rec := newCoordinator(t, dispatch.Sequential, delayed(tp))

	// t=0: 1 starts, 2 waits.
	c.OnNext(1)
	c.OnNext(2)
	tp.WaitForTimers(t, 1)
	testutil.AssertEqual(t, c.InFlight(), 1)
	testutil.AssertEqual(t, c.Pending(), 1)
	testutil.AssertEqual(t, len(rec.Values()), 0)

	// t=3: 1 finishes, 2 starts.
	tp.Advance(unitDelay)
	waitValues(t, rec, 100)

	// t=5: 3 waits behind 2.
	tp.WaitForTimers(t, 1)
	tp.Advance(2 * time.Second)
	c.OnNext(3)
	testutil.AssertEqual(t, c.Pending(), 1)

	// t=6: 2 finishes, 3 starts.
	tp.Advance(time.Second)
	waitValues(t, rec, 100, 200)

	// t=9: 3 finishes.
	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	waitValues(t, rec, 100, 200, 300)
	waitIdle(t, c)
}

func TestDrop_DiscardsValuesWhileBusy(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	c, rec := newCoordinator(t, dispatch.Drop, delayed(tp))

	c.OnNext(1)
	c.OnNext(2)
	tp.WaitForTimers(t, 1)
	testutil.AssertEqual(t, c.Pending(), 0)

	tp.Advance(unitDelay)
	waitValues(t, rec, 100)
	waitIdle(t, c)

	c.OnNext(3)
	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	waitValues(t, rec, 100, 300)
	waitIdle(t, c)
}

func TestParallel_RunsConcurrently(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	c, rec := newCoordinator(t, dispatch.Parallel, delayed(tp))

	c.OnNext(1)
	c.OnNext(2)
	tp.WaitForTimers(t, 2)
	testutil.AssertEqual(t, c.InFlight(), 2)

	tp.Advance(unitDelay)
	testutil.AssertEventually(t, func() bool { return len(rec.Values()) == 2 })
	got := rec.Values()
	slices.Sort(got)
	testutil.AssertSliceEqual(t, got, []int{100, 200})
	waitIdle(t, c)

	tp.Advance(2 * time.Second)
	c.OnNext(3)
	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	testutil.AssertEventually(t, func() bool { return len(rec.Values()) == 3 })
	testutil.AssertEqual(t, rec.Values()[2], 300)
	waitIdle(t, c)
}

func TestParallel_MaxConcurrency(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	var running, peak atomic.Int32
	fn := func(ctx context.Context, v int) (int, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return delayed(tp)(ctx, v)
	}

	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Parallel
	cfg.MaxConcurrency = 2
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, fn, cfg)
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	for i := 1; i <= 5; i++ {
		c.OnNext(i)
	}
	tp.WaitForTimers(t, 2)
	testutil.AssertEqual(t, c.InFlight(), 2)
	testutil.AssertEqual(t, c.Pending(), 3)

	done := 0
	for _, round := range []int{2, 2, 1} {
		tp.WaitForTimers(t, round)
		tp.Advance(unitDelay)
		done += round
		testutil.AssertEventually(t, func() bool { return len(rec.Values()) == done })
	}

	got := rec.Values()
	slices.Sort(got)
	testutil.AssertSliceEqual(t, got, []int{100, 200, 300, 400, 500})
	testutil.AssertEqual(t, peak.Load() <= 2, true)
}

func TestLimiter_PacesUnits(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	limiter, err := bucket.NewWithConfig(bucket.Config{
		Rate:          bucket.Every(time.Second),
		Burst:         1,
		InitialTokens: -1,
		TimeProvider:  tp,
	})
	testutil.AssertNoError(t, err)

	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Parallel
	cfg.Limiter = limiter
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, func(_ context.Context, v int) (int, error) {
		return v * 100, nil
	}, cfg)
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	c.OnNext(1)
	waitValues(t, rec, 100)
	c.OnNext(2)
	c.OnNext(3)
	tp.WaitForTimers(t, 2)
	testutil.AssertEqual(t, len(rec.Values()), 1)

	tp.Advance(time.Second)
	testutil.AssertEventually(t, func() bool { return len(rec.Values()) == 2 })
	tp.Advance(time.Second)
	testutil.AssertEventually(t, func() bool { return len(rec.Values()) == 3 })

	got := rec.Values()
	slices.Sort(got)
	testutil.AssertSliceEqual(t, got, []int{100, 200, 300})
}

func TestLimiter_RefusalIsErrorResume(t *testing.T) {
	limiter, err := bucket.New(0, 1)
	testutil.AssertNoError(t, err)

	cfg := dispatch.DefaultConfig()
	cfg.Limiter = limiter
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, func(_ context.Context, v int) (int, error) {
		return v, nil
	}, cfg)
	testutil.AssertNoError(t, err)

	c.OnNext(1)
	c.OnNext(2)
	c.OnCompleted(observable.Success)
	<-rec.Done()

	testutil.AssertSliceEqual(t, rec.Values(), []int{1})
	errs := rec.Errors()
	testutil.AssertEqual(t, len(errs), 1)
	testutil.AssertErrorIs(t, errs[0], bucket.ErrLimitExceeded)
}

func TestLimiter_DisposeAbandonsWait(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	limiter, err := bucket.NewWithConfig(bucket.Config{
		Rate:         bucket.Every(time.Minute),
		Burst:        1,
		TimeProvider: tp,
	})
	testutil.AssertNoError(t, err)

	cfg := dispatch.DefaultConfig()
	cfg.Limiter = limiter
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, func(_ context.Context, v int) (int, error) {
		return v, nil
	}, cfg)
	testutil.AssertNoError(t, err)

	c.OnNext(1)
	tp.WaitForTimers(t, 1)
	c.Dispose()
	waitIdle(t, c)

	testutil.AssertEqual(t, len(rec.Values()), 0)
	testutil.AssertEqual(t, len(rec.Errors()), 0)
	testutil.AssertEventually(t, func() bool { return tp.Timers() == 0 })
}

func TestSwitch_CancelsRunningUnit(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	var started, returned atomic.Int32
	fn := func(ctx context.Context, v int) (int, error) {
		started.Add(1)
		defer returned.Add(1)
		return delayed(tp)(ctx, v)
	}
	c, rec := newCoordinator(t, dispatch.Switch, fn)

	c.OnNext(1)
	tp.WaitForTimers(t, 1)
	c.OnNext(2)
	testutil.AssertEqual(t, c.InFlight(), 1)

	// 1 has given up its timer and 2 has registered its own.
	testutil.AssertEventually(t, func() bool {
		return started.Load() == 2 && returned.Load() == 1 && tp.Timers() == 1
	})

	tp.Advance(unitDelay)
	waitValues(t, rec, 200)
	testutil.AssertEqual(t, len(rec.Errors()), 0)
	waitIdle(t, c)
}

func TestThrottleFirstLast_RunsFirstAndLatest(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	var (
		mu      sync.Mutex
		dropped []any
	)
	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.ThrottleFirstLast
	cfg.OnDrop = func(v any) {
		mu.Lock()
		defer mu.Unlock()
		dropped = append(dropped, v)
	}
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, delayed(tp), cfg)
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	for i := 1; i <= 4; i++ {
		c.OnNext(i)
	}
	testutil.AssertEqual(t, c.Pending(), 1)

	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	waitValues(t, rec, 100)

	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	waitValues(t, rec, 100, 400)
	waitIdle(t, c)

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertSliceEqual(t, dropped, []any{2, 3})
}

func TestErrorsAreNonTerminating(t *testing.T) {
	boom := errors.New("boom")
	fn := func(_ context.Context, v int) (int, error) {
		switch v {
		case 2:
			return 0, boom
		case 3:
			panic("unit exploded")
		}
		return v * 100, nil
	}
	c, rec := newCoordinator(t, dispatch.Sequential, fn)

	for i := 1; i <= 4; i++ {
		c.OnNext(i)
	}
	c.OnCompleted(observable.Success)
	<-rec.Done()

	testutil.AssertSliceEqual(t, rec.Values(), []int{100, 400})
	errs := rec.Errors()
	testutil.AssertEqual(t, len(errs), 2)
	testutil.AssertErrorIs(t, errs[0], boom)
	var perr *rxerrors.PanicError
	if !errors.As(errs[1], &perr) {
		t.Fatalf("expected *PanicError, got %T", errs[1])
	}
	testutil.AssertEqual(t, perr.Value, any("unit exploded"))
	testutil.AssertEqual(t, rec.Completions(), 1)
}

func TestUpstreamErrorResumeIsForwarded(t *testing.T) {
	c, rec := newCoordinator(t, dispatch.Sequential, func(_ context.Context, v int) (int, error) { return v, nil })
	boom := errors.New("upstream")

	c.OnErrorResume(boom)
	testutil.AssertEqual(t, len(rec.Errors()), 1)
	testutil.AssertErrorIs(t, rec.Errors()[0], boom)
}

func TestCompletion_DrainsBeforeCompleting(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	c, rec := newCoordinator(t, dispatch.Sequential, delayed(tp))

	c.OnNext(1)
	c.OnNext(2)
	c.OnCompleted(observable.Success)
	c.OnNext(3)
	c.OnCompleted(observable.Failure(errors.New("late")))
	testutil.AssertEqual(t, rec.Completed(), false)

	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	waitValues(t, rec, 100)
	testutil.AssertEqual(t, rec.Completed(), false)

	tp.WaitForTimers(t, 1)
	tp.Advance(unitDelay)
	<-rec.Done()
	testutil.AssertSliceEqual(t, rec.Values(), []int{100, 200})
	testutil.AssertEqual(t, rec.Completions(), 1)
	res, _ := rec.Result()
	testutil.AssertEqual(t, res.IsSuccess(), true)
}

func TestCompletion_WhenIdleIsImmediate(t *testing.T) {
	c, rec := newCoordinator(t, dispatch.Parallel, func(_ context.Context, v int) (int, error) { return v, nil })
	boom := errors.New("source failed")

	c.OnCompleted(observable.Failure(boom))
	testutil.AssertEqual(t, rec.Completions(), 1)
	res, _ := rec.Result()
	testutil.AssertErrorIs(t, res.Err(), boom)
}

func TestCompletion_CancelOnCompleted(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	cfg := dispatch.DefaultConfig()
	cfg.CancelOnCompleted = true
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, delayed(tp), cfg)
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	c.OnNext(1)
	c.OnNext(2)
	tp.WaitForTimers(t, 1)
	c.OnCompleted(observable.Success)

	testutil.AssertEqual(t, rec.Completions(), 1)
	testutil.AssertEqual(t, c.InFlight(), 0)
	testutil.AssertEqual(t, c.Pending(), 0)
	testutil.AssertEventually(t, func() bool { return tp.Timers() == 0 })
	testutil.AssertEqual(t, len(rec.Values()), 0)
}

func TestDispose_CancelsInFlightAndQueued(t *testing.T) {
	tp := testutil.NewFakeTimeProvider(epoch)
	var started atomic.Int32
	fn := func(ctx context.Context, v int) (int, error) {
		started.Add(1)
		return delayed(tp)(ctx, v)
	}
	c, rec := newCoordinator(t, dispatch.Sequential, fn)

	c.OnNext(1)
	c.OnNext(2)
	c.OnNext(3)
	tp.WaitForTimers(t, 1)

	c.Dispose()
	c.Dispose()
	testutil.AssertEqual(t, c.IsDisposed(), true)
	testutil.AssertEqual(t, c.InFlight(), 0)
	testutil.AssertEqual(t, c.Pending(), 0)
	testutil.AssertEventually(t, func() bool { return tp.Timers() == 0 })

	c.OnNext(4)
	c.OnCompleted(observable.Success)
	tp.Advance(time.Minute)

	testutil.AssertEqual(t, started.Load(), int32(1))
	testutil.AssertEqual(t, len(rec.Values()), 0)
	testutil.AssertEqual(t, len(rec.Errors()), 0)
	testutil.AssertEqual(t, rec.Completed(), false)
}

func TestDispose_ConcurrentWithOnNext(t *testing.T) {
	var started, finished atomic.Int32
	fn := func(ctx context.Context, v int) (int, error) {
		started.Add(1)
		defer finished.Add(1)
		<-ctx.Done()
		return 0, ctx.Err()
	}
	c, rec := newCoordinator(t, dispatch.Parallel, fn)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				c.OnNext(j)
			}
			return nil
		})
	}
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			c.Dispose()
			return nil
		})
	}
	testutil.AssertNoError(t, g.Wait())

	testutil.AssertEventually(t, func() bool { return finished.Load() == started.Load() })
	before := started.Load()
	c.OnNext(99)
	testutil.AssertEqual(t, started.Load(), before)
	testutil.AssertEqual(t, len(rec.Errors()), 0)
	testutil.AssertEqual(t, c.InFlight(), 0)
}

func TestDispose_UnitsStartedJustBeforeNeverRun(t *testing.T) {
	strategies := []dispatch.Strategy{
		dispatch.Sequential, dispatch.Drop, dispatch.Parallel, dispatch.Switch, dispatch.ThrottleFirstLast,
	}
	for _, strategy := range strategies {
		t.Run(strategy.String(), func(t *testing.T) {
			var lateStarts atomic.Int32
			fn := func(ctx context.Context, v int) (int, error) {
				if ctx.Err() != nil {
					lateStarts.Add(1)
				}
				return v, nil
			}
			for i := 0; i < 500; i++ {
				c, rec := newCoordinator(t, strategy, fn)
				c.OnNext(1)
				c.OnNext(2)
				c.Dispose()
				testutil.AssertEventually(t, func() bool { return c.InFlight() == 0 })
				testutil.AssertEqual(t, len(rec.Errors()), 0)
			}
			testutil.AssertEqual(t, lateStarts.Load(), int32(0))
		})
	}
}

func TestConfigValidation(t *testing.T) {
	rec := observabletest.NewRecorder[int]()
	fn := func(_ context.Context, v int) (int, error) { return v, nil }

	tests := []struct {
		name       string
		downstream observable.Observer[int]
		fn         func(context.Context, int) (int, error)
		config     func(*dispatch.Config)
	}{
		{name: "nil downstream", fn: fn},
		{name: "nil fn", downstream: rec},
		{name: "unknown strategy", downstream: rec, fn: fn, config: func(c *dispatch.Config) { c.Strategy = dispatch.Strategy(42) }},
		{name: "negative concurrency", downstream: rec, fn: fn, config: func(c *dispatch.Config) {
			c.Strategy = dispatch.Parallel
			c.MaxConcurrency = -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dispatch.DefaultConfig()
			if tt.config != nil {
				tt.config(&cfg)
			}
			c, err := dispatch.New[int, int](tt.downstream, tt.fn, cfg)
			testutil.AssertErrorIs(t, err, rxerrors.ErrInvalidConfiguration)
			if c != nil {
				t.Fatal("expected nil coordinator")
			}
		})
	}
}

func TestStrategyText(t *testing.T) {
	for _, s := range []dispatch.Strategy{dispatch.Sequential, dispatch.Drop, dispatch.Parallel, dispatch.Switch, dispatch.ThrottleFirstLast} {
		text, err := s.MarshalText()
		testutil.AssertNoError(t, err)

		var parsed dispatch.Strategy
		testutil.AssertNoError(t, parsed.UnmarshalText(text))
		testutil.AssertEqual(t, parsed, s)
	}

	s, err := dispatch.ParseStrategy(" Throttle-First-Last ")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s, dispatch.ThrottleFirstLast)

	_, err = dispatch.ParseStrategy("fastest")
	testutil.AssertErrorIs(t, err, rxerrors.ErrInvalidConfiguration)

	_, err = dispatch.Strategy(9).MarshalText()
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, dispatch.Strategy(9).String(), "Strategy(9)")
}

func TestSelect(t *testing.T) {
	src := observable.FromSlice([]int{1, 2, 3})
	out, err := dispatch.Select(src, func(_ context.Context, v int) (string, error) {
		return string(rune('a' + v - 1)), nil
	}, dispatch.DefaultConfig())
	testutil.AssertNoError(t, err)

	rec := observabletest.NewRecorder[string]()
	sub := out.Subscribe(rec)
	defer sub.Dispose()

	<-rec.Done()
	testutil.AssertSliceEqual(t, rec.Values(), []string{"a", "b", "c"})
}

func TestSelect_EachSubscriptionIsIndependent(t *testing.T) {
	subject := observable.NewSubject[int]()
	out, err := dispatch.Select[int, int](subject, func(_ context.Context, v int) (int, error) { return v, nil }, dispatch.DefaultConfig())
	testutil.AssertNoError(t, err)

	a := observabletest.NewRecorder[int]()
	b := observabletest.NewRecorder[int]()
	subA := out.Subscribe(a)
	out.Subscribe(b)

	subject.OnNext(1)
	testutil.AssertEventually(t, func() bool { return len(a.Values()) == 1 && len(b.Values()) == 1 })

	subA.Dispose()
	testutil.AssertEqual(t, subject.HasObservers(), true)
	subject.OnNext(2)
	subject.OnCompleted(observable.Success)
	<-b.Done()

	testutil.AssertSliceEqual(t, a.Values(), []int{1})
	testutil.AssertSliceEqual(t, b.Values(), []int{1, 2})
}

func TestSubscribe(t *testing.T) {
	boom := errors.New("boom")
	var (
		mu   sync.Mutex
		seen []int
		errs []error
	)
	done := make(chan observable.Result, 1)

	c, err := dispatch.Subscribe(observable.FromSlice([]int{1, 2, 3}), func(_ context.Context, v int) error {
		if v == 2 {
			return boom
		}
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
		return nil
	}, dispatch.DefaultConfig(), func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}, func(r observable.Result) { done <- r })
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	res := <-done
	testutil.AssertEqual(t, res.IsSuccess(), true)

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertSliceEqual(t, seen, []int{1, 3})
	testutil.AssertEqual(t, len(errs), 1)
	testutil.AssertErrorIs(t, errs[0], boom)
}

func TestSubscribe_Validation(t *testing.T) {
	_, err := dispatch.Subscribe[int](nil, func(context.Context, int) error { return nil }, dispatch.DefaultConfig(), nil, nil)
	testutil.AssertErrorIs(t, err, rxerrors.ErrInvalidConfiguration)

	_, err = dispatch.Select[int, int](observable.Empty[int](), nil, dispatch.DefaultConfig())
	testutil.AssertErrorIs(t, err, rxerrors.ErrInvalidConfiguration)
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	release := make(chan struct{})

	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Drop
	cfg.Name = "orders"
	cfg.Metrics = reg
	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, func(_ context.Context, v int) (int, error) {
		<-release
		if v == 1 {
			return 0, errors.New("rejected")
		}
		return v, nil
	}, cfg)
	testutil.AssertNoError(t, err)
	defer c.Dispose()

	testutil.AssertEqual(t, promtest.ToFloat64(reg.SubscriptionsActive.WithLabelValues("dispatch", "orders")), 1.0)

	c.OnNext(1)
	c.OnNext(2)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchReceived.WithLabelValues("drop", "orders")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchDropped.WithLabelValues("drop", "orders")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchStarted.WithLabelValues("drop", "orders")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchInFlight.WithLabelValues("drop", "orders")), 1.0)

	close(release)
	c.OnCompleted(observable.Success)
	<-rec.Done()

	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchFailed.WithLabelValues("drop", "orders")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchInFlight.WithLabelValues("drop", "orders")), 0.0)
	testutil.AssertEventually(t, func() bool {
		return promtest.ToFloat64(reg.SubscriptionsActive.WithLabelValues("dispatch", "orders")) == 0
	})
	testutil.AssertEqual(t, promtest.CollectAndCount(reg.DispatchDuration), 1)
}

func TestMetrics_DisposeCountsCanceled(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	cfg := dispatch.DefaultConfig()
	cfg.Name = "feed"
	cfg.Metrics = reg

	rec := observabletest.NewRecorder[int]()
	c, err := dispatch.New[int, int](rec, func(ctx context.Context, v int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, cfg)
	testutil.AssertNoError(t, err)

	c.OnNext(1)
	c.OnNext(2)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchQueued.WithLabelValues("sequential", "feed")), 1.0)

	c.Dispose()
	testutil.AssertEqual(t, promtest.ToFloat64(reg.DispatchQueued.WithLabelValues("sequential", "feed")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(reg.Disposals.WithLabelValues("dispatch", "feed")), 1.0)
	testutil.AssertEventually(t, func() bool {
		return promtest.ToFloat64(reg.DispatchCanceled.WithLabelValues("sequential", "feed")) == 1.0
	})
}

func TestID(t *testing.T) {
	a, _ := newCoordinator(t, dispatch.Sequential, func(_ context.Context, v int) (int, error) { return v, nil })
	b, _ := newCoordinator(t, dispatch.Sequential, func(_ context.Context, v int) (int, error) { return v, nil })
	if a.ID() == b.ID() {
		t.Fatal("coordinators share an ID")
	}
}
