package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	rxcontext "github.com/vnykmshr/rxflow/pkg/common/context"
	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

type state int

const (
	stateActive state = iota
	stateCompleting
	stateDone
	stateDisposed
)

// unit is one running invocation of the work function.
type unit[T any] struct {
	id     uint64
	value  T
	ctx    context.Context
	cancel context.CancelFunc
}

// Coordinator maps synchronous pushes onto asynchronous, cancellable units of
// work. It is an Observer of the source stream and a Disposable.
//
// OnNext never blocks: depending on the Strategy a value starts a unit on its
// own goroutine, waits in a queue, or is discarded. Unit results are
// delivered to the downstream Observer through OnNext, unit errors and
// recovered panics through OnErrorResume. Downstream calls are serialized.
type Coordinator[T, R any] struct {
	id         uuid.UUID
	config     Config
	fn         func(context.Context, T) (R, error)
	downstream observable.Observer[R]
	emit       bool
	logger     *slog.Logger

	scope       context.Context
	cancelScope context.CancelFunc
	upstream    disposable.SingleAssignment
	slots       *semaphore.Weighted

	mu         sync.Mutex
	state      state
	queue      []T
	inflight   map[uint64]*unit[T]
	nextID     uint64
	latest     T
	hasLatest  bool
	completion observable.Result

	downMu     sync.Mutex
	terminated atomic.Bool
	untrack    sync.Once
}

// New creates a Coordinator that runs fn for each value it observes and
// forwards results to downstream.
func New[T, R any](downstream observable.Observer[R], fn func(context.Context, T) (R, error), config Config) (*Coordinator[T, R], error) {
	if err := validation.ValidateNotNil("dispatch", "downstream", downstream); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("dispatch", "fn", fn); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newCoordinator(downstream, fn, config, true), nil
}

func newCoordinator[T, R any](downstream observable.Observer[R], fn func(context.Context, T) (R, error), config Config, emit bool) *Coordinator[T, R] {
	scope, cancel := context.WithCancel(rxcontext.OrBackground(config.Context))

	c := &Coordinator[T, R]{
		id:          uuid.New(),
		config:      config,
		fn:          fn,
		downstream:  downstream,
		emit:        emit,
		scope:       scope,
		cancelScope: cancel,
		inflight:    make(map[uint64]*unit[T]),
	}
	c.logger = config.logger().With(
		slog.String("coordinator", c.id.String()),
		slog.String("strategy", config.Strategy.String()),
		slog.String("name", config.Name),
	)
	if config.Strategy == Parallel && config.MaxConcurrency > 0 {
		c.slots = semaphore.NewWeighted(int64(config.MaxConcurrency))
	}

	if m := config.Metrics; m != nil {
		m.SubscriptionsActive.WithLabelValues("dispatch", config.Name).Inc()
	}
	c.logger.Debug("coordinator created", slog.Int("max_concurrency", config.MaxConcurrency))
	return c
}

// SetUpstream records the subscription feeding this coordinator so that
// Dispose and completion release it. If the coordinator has already
// terminated, d is disposed immediately.
func (c *Coordinator[T, R]) SetUpstream(d disposable.Disposable) {
	if err := c.upstream.Set(d); err != nil {
		rxerrors.HandleUnhandled(rxerrors.NewOperationError("dispatch", "SetUpstream", err))
	}
}

// ID returns the coordinator's unique identifier.
func (c *Coordinator[T, R]) ID() uuid.UUID {
	return c.id
}

// OnNext routes value according to the configured Strategy.
func (c *Coordinator[T, R]) OnNext(value T) {
	var (
		dropped    bool
		droppedVal T
	)

	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	c.count(receivedTotal)

	switch c.config.Strategy {
	case Sequential:
		if len(c.inflight) == 0 {
			c.startLocked(value)
		} else {
			c.enqueueLocked(value)
		}

	case Drop:
		if len(c.inflight) == 0 {
			c.startLocked(value)
		} else {
			dropped, droppedVal = true, value
		}

	case Parallel:
		if c.slots == nil || c.slots.TryAcquire(1) {
			c.startLocked(value)
		} else {
			c.enqueueLocked(value)
		}

	case Switch:
		for id, u := range c.inflight {
			u.cancel()
			c.removeLocked(id)
		}
		c.startLocked(value)

	case ThrottleFirstLast:
		if len(c.inflight) == 0 {
			c.startLocked(value)
		} else {
			if c.hasLatest {
				dropped, droppedVal = true, c.latest
			}
			c.latest, c.hasLatest = value, true
		}
	}
	c.mu.Unlock()

	if dropped {
		c.drop(droppedVal)
	}
}

// OnErrorResume forwards an upstream per-item failure downstream.
func (c *Coordinator[T, R]) OnErrorResume(err error) {
	c.mu.Lock()
	active := c.state == stateActive || c.state == stateCompleting
	c.mu.Unlock()
	if !active {
		return
	}

	c.downMu.Lock()
	defer c.downMu.Unlock()
	if c.terminated.Load() {
		return
	}
	c.downstream.OnErrorResume(err)
}

// OnCompleted handles upstream completion. By default the coordinator stops
// accepting values, lets queued and running units finish, then completes
// downstream with result. With Config.CancelOnCompleted it cancels running
// units, discards the queue and completes downstream at once.
func (c *Coordinator[T, R]) OnCompleted(result observable.Result) {
	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}

	if c.config.CancelOnCompleted {
		c.state = stateDone
		canceled := len(c.inflight)
		for id, u := range c.inflight {
			u.cancel()
			c.removeLocked(id)
		}
		discarded := c.clearQueueLocked()
		c.mu.Unlock()

		c.logger.Debug("completing without drain",
			slog.Int("canceled", canceled), slog.Int("discarded", discarded))
		c.complete(result)
		return
	}

	if c.idleLocked() {
		c.state = stateDone
		c.mu.Unlock()
		c.complete(result)
		return
	}

	c.state = stateCompleting
	c.completion = result
	pending := len(c.inflight) + len(c.queue)
	c.mu.Unlock()
	c.logger.Debug("draining before completion", slog.Int("pending", pending))
}

// Dispose cancels every running unit, discards queued values and disposes
// the upstream subscription. No outcome is delivered downstream afterwards.
// Safe to call concurrently and more than once.
func (c *Coordinator[T, R]) Dispose() {
	c.mu.Lock()
	if c.state == stateDisposed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = stateDisposed
	for id := range c.inflight {
		c.removeLocked(id)
	}
	discarded := c.clearQueueLocked()
	c.mu.Unlock()

	c.terminated.Store(true)
	c.cancelScope()
	c.upstream.Dispose()

	if prev != stateDone {
		if m := c.config.Metrics; m != nil {
			m.Disposals.WithLabelValues("dispatch", c.config.Name).Inc()
		}
		c.logger.Debug("coordinator disposed", slog.Int("discarded", discarded))
	}
	c.release()
}

// IsDisposed reports whether Dispose has been called.
func (c *Coordinator[T, R]) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateDisposed
}

// InFlight returns the number of units currently running.
func (c *Coordinator[T, R]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Pending returns the number of values waiting to start.
func (c *Coordinator[T, R]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.queue)
	if c.hasLatest {
		n++
	}
	return n
}

func (c *Coordinator[T, R]) startLocked(value T) {
	ctx, cancel := context.WithCancel(c.scope)
	u := &unit[T]{id: c.nextID, value: value, ctx: ctx, cancel: cancel}
	c.nextID++
	c.inflight[u.id] = u

	if m := c.config.Metrics; m != nil {
		m.DispatchStarted.WithLabelValues(c.labels()...).Inc()
		m.DispatchInFlight.WithLabelValues(c.labels()...).Inc()
	}
	go c.run(u)
}

func (c *Coordinator[T, R]) enqueueLocked(value T) {
	c.queue = append(c.queue, value)
	if m := c.config.Metrics; m != nil {
		m.DispatchQueued.WithLabelValues(c.labels()...).Inc()
	}
}

func (c *Coordinator[T, R]) dequeueLocked() T {
	value := c.queue[0]
	var zero T
	c.queue[0] = zero
	c.queue = c.queue[1:]
	if len(c.queue) == 0 {
		c.queue = nil
	}
	if m := c.config.Metrics; m != nil {
		m.DispatchQueued.WithLabelValues(c.labels()...).Dec()
	}
	return value
}

func (c *Coordinator[T, R]) clearQueueLocked() int {
	n := len(c.queue)
	c.queue = nil
	if m := c.config.Metrics; m != nil && n > 0 {
		m.DispatchQueued.WithLabelValues(c.labels()...).Sub(float64(n))
	}
	if c.hasLatest {
		var zero T
		c.latest, c.hasLatest = zero, false
		n++
	}
	return n
}

// removeLocked forgets a unit. Its slot, if any, is returned to the pool.
func (c *Coordinator[T, R]) removeLocked(id uint64) {
	if _, ok := c.inflight[id]; !ok {
		return
	}
	delete(c.inflight, id)
	if c.slots != nil {
		c.slots.Release(1)
	}
	if m := c.config.Metrics; m != nil {
		m.DispatchInFlight.WithLabelValues(c.labels()...).Dec()
	}
}

func (c *Coordinator[T, R]) idleLocked() bool {
	return len(c.inflight) == 0 && len(c.queue) == 0 && !c.hasLatest
}

func (c *Coordinator[T, R]) run(u *unit[T]) {
	start := time.Now()
	result, err := c.invoke(u)
	elapsed := time.Since(start)

	if m := c.config.Metrics; m != nil {
		m.DispatchDuration.WithLabelValues(c.labels()...).Observe(elapsed.Seconds())
	}

	if u.ctx.Err() != nil {
		c.count(canceledTotal)
	} else {
		c.deliver(result, err)
	}
	c.finish(u)
}

func (c *Coordinator[T, R]) invoke(u *unit[T]) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.NewPanicError(r)
		}
	}()
	// Canceled between start and scheduling: the unit never begins.
	if err := u.ctx.Err(); err != nil {
		return result, err
	}
	if l := c.config.Limiter; l != nil {
		if err := l.Wait(u.ctx); err != nil {
			return result, rxerrors.NewOperationError("dispatch", "Limiter.Wait", err)
		}
	}
	return c.fn(u.ctx, u.value)
}

// deliver reports a unit outcome downstream. The unit's slot is still held,
// so under the single-unit strategies the next unit cannot start until the
// outcome has been delivered.
func (c *Coordinator[T, R]) deliver(result R, err error) {
	if err != nil {
		c.count(failedTotal)
		c.logger.Debug("unit failed", slog.Any("error", err))
	}

	c.downMu.Lock()
	defer c.downMu.Unlock()
	if c.terminated.Load() {
		return
	}
	if err != nil {
		c.downstream.OnErrorResume(err)
		return
	}
	if c.emit {
		c.downstream.OnNext(result)
	}
}

func (c *Coordinator[T, R]) finish(u *unit[T]) {
	defer u.cancel()

	c.mu.Lock()
	if _, ok := c.inflight[u.id]; !ok {
		// Superseded by Switch, or released by Dispose or CancelOnCompleted.
		c.mu.Unlock()
		return
	}
	c.removeLocked(u.id)

	if c.state == stateActive || c.state == stateCompleting {
		switch c.config.Strategy {
		case Sequential:
			if len(c.queue) > 0 {
				c.startLocked(c.dequeueLocked())
			}
		case Parallel:
			for len(c.queue) > 0 && (c.slots == nil || c.slots.TryAcquire(1)) {
				c.startLocked(c.dequeueLocked())
			}
		case ThrottleFirstLast:
			if c.hasLatest {
				value := c.latest
				var zero T
				c.latest, c.hasLatest = zero, false
				c.startLocked(value)
			}
		}
	}

	completing := c.state == stateCompleting && c.idleLocked()
	if completing {
		c.state = stateDone
	}
	result := c.completion
	c.mu.Unlock()

	if completing {
		c.complete(result)
	}
}

// complete delivers the terminal Result downstream once and releases the
// coordinator's resources.
func (c *Coordinator[T, R]) complete(result observable.Result) {
	c.downMu.Lock()
	if c.terminated.CompareAndSwap(false, true) {
		c.downstream.OnCompleted(result)
	}
	c.downMu.Unlock()

	c.cancelScope()
	c.upstream.Dispose()
	c.logger.Debug("coordinator completed", slog.String("result", result.String()))
	c.release()
}

func (c *Coordinator[T, R]) release() {
	c.untrack.Do(func() {
		if m := c.config.Metrics; m != nil {
			m.SubscriptionsActive.WithLabelValues("dispatch", c.config.Name).Dec()
		}
	})
}

func (c *Coordinator[T, R]) drop(value T) {
	c.count(droppedTotal)
	c.logger.Debug("value dropped")
	if c.config.OnDrop == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			rxerrors.HandleUnhandled(rxerrors.NewOperationError("dispatch", "OnDrop",
				fmt.Errorf("callback panicked: %w", rxerrors.NewPanicError(r))))
		}
	}()
	c.config.OnDrop(value)
}
