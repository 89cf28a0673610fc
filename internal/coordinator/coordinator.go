// Package coordinator schedules and executes reconciliation work. All tasks
// run on one worker goroutine, one at a time, in arrival order; periodic
// timers and entity change hooks only enqueue. Events raised by a task are
// dispatched after the raising task's transaction closes.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/telemetry"
)

const defaultQueueSize = 256

// Coordinator runs the reconciliation layer's event loop and periodic
// schedules for all registries.
type Coordinator interface {
	// Start runs the event loop. Blocks until the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for the in-flight
	// task to finish.
	Stop() error

	// NotifyEvent enqueues an event for asynchronous dispatch.
	NotifyEvent(ev events.Event)

	// HandleEvent enqueues an event and waits for its dispatch to finish,
	// returning the first task error.
	HandleEvent(ctx context.Context, ev events.Event) error

	// EntityChanged reports a persistent entity change so schedules and
	// derived state can be brought up to date.
	EntityChanged(ch Change)
}

// item is one unit of queued work: an event to dispatch or a function to
// run on the worker goroutine.
type item struct {
	ev    events.Event
	fn    func(ctx context.Context) ([]events.Event, error)
	reply chan error
}

type defaultCoordinator struct {
	stores    store.Stores
	tx        store.TxRunner
	builders  []tasks.Builder
	endpoints tasks.EndpointResolver
	audit     audit.Sink

	cron  *cron.Cron
	queue chan item

	// runtimes is touched only from the worker goroutine.
	runtimes map[string]*registryRuntime

	cancelFunc context.CancelFunc
	done       chan struct{}

	metricsCleanupInterval time.Duration
	policySweepInterval    time.Duration
	taskMetrics            *telemetry.TaskMetrics
	sweepMetrics           *telemetry.SweepMetrics
}

// Option configures the coordinator.
type Option func(*defaultCoordinator)

// WithTaskMetrics sets the task dispatch instruments.
func WithTaskMetrics(m *telemetry.TaskMetrics) Option {
	return func(c *defaultCoordinator) {
		c.taskMetrics = m
	}
}

// WithSweepMetrics sets the reconciliation sweep instruments.
func WithSweepMetrics(m *telemetry.SweepMetrics) Option {
	return func(c *defaultCoordinator) {
		c.sweepMetrics = m
	}
}

// WithMetricsCleanupInterval overrides the fixed metrics cleanup period.
func WithMetricsCleanupInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.metricsCleanupInterval = d
		}
	}
}

// WithPolicySweepInterval overrides the fixed policy sweep period.
func WithPolicySweepInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.policySweepInterval = d
		}
	}
}

// New creates a coordinator dispatching to the given task builders.
func New(
	stores store.Stores,
	tx store.TxRunner,
	endpoints tasks.EndpointResolver,
	auditSink audit.Sink,
	builders []tasks.Builder,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		stores:                 stores,
		tx:                     tx,
		builders:               builders,
		endpoints:              endpoints,
		audit:                  auditSink,
		cron:                   cron.New(),
		queue:                  make(chan item, defaultQueueSize),
		runtimes:               make(map[string]*registryRuntime),
		done:                   make(chan struct{}),
		metricsCleanupInterval: DefaultMetricsCleanupInterval,
		policySweepInterval:    DefaultPolicySweepInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the event loop until the context is cancelled.
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting reconciliation coordinator")

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Reconciliation coordinator shutting down")
	}()

	c.cron.Start()
	defer c.cron.Stop()

	initial, err := c.syncSchedules(coordCtx)
	if err != nil {
		return fmt.Errorf("failed to load registry schedules: %w", err)
	}

	backlog := make([]item, 0, len(initial)+1)
	backlog = append(backlog, item{fn: c.sweepFn})
	for _, ev := range initial {
		backlog = append(backlog, item{ev: ev})
	}

	c.run(coordCtx, backlog)
	return nil
}

// Stop gracefully stops the coordinator.
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping reconciliation coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// NotifyEvent implements Coordinator. Events offered after shutdown are
// dropped.
func (c *defaultCoordinator) NotifyEvent(ev events.Event) {
	select {
	case c.queue <- item{ev: ev}:
	case <-c.done:
		slog.Warn("Dropping event, coordinator stopped", "event", eventName(ev))
	}
}

// HandleEvent implements Coordinator. The event still runs on the worker
// goroutine in queue order; the caller just waits for it.
func (c *defaultCoordinator) HandleEvent(ctx context.Context, ev events.Event) error {
	reply := make(chan error, 1)
	select {
	case c.queue <- item{ev: ev, reply: reply}:
	case <-c.done:
		return fmt.Errorf("coordinator stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single worker loop. Backlog items run before new queue items
// so events raised by a task are dispatched ahead of later arrivals.
func (c *defaultCoordinator) run(ctx context.Context, backlog []item) {
	for {
		if len(backlog) > 0 {
			it := backlog[0]
			backlog = backlog[1:]
			backlog = append(backlog, c.process(ctx, it)...)
			continue
		}
		select {
		case it := <-c.queue:
			backlog = append(backlog, it)
		case <-ctx.Done():
			return
		}
	}
}

// process runs one item and returns the follow-up items it raised.
func (c *defaultCoordinator) process(ctx context.Context, it item) []item {
	var (
		raised []events.Event
		err    error
	)
	if it.fn != nil {
		raised, err = it.fn(ctx)
		if err != nil {
			slog.Error("Coordinator maintenance step failed", "error", err)
		}
	} else {
		raised, err = c.dispatch(ctx, it.ev)
	}
	if it.reply != nil {
		it.reply <- err
	}

	out := make([]item, 0, len(raised))
	for _, ev := range raised {
		out = append(out, item{ev: ev})
	}
	return out
}

// dispatch offers the event to every builder and executes the tasks built,
// each inside its own transaction. Events raised by a failed task are
// discarded along with its transaction.
func (c *defaultCoordinator) dispatch(ctx context.Context, ev events.Event) ([]events.Event, error) {
	name := eventName(ev)

	var (
		raised   []events.Event
		firstErr error
	)
	for _, b := range c.builders {
		task := b.Build(ev)
		if task == nil {
			continue
		}

		collector := &eventCollector{}
		start := time.Now()
		err := c.tx.WithinTransaction(ctx, func(ctx context.Context, s store.Stores) error {
			return task.Execute(ctx, &tasks.Context{
				Stores:    s,
				Tx:        c.tx,
				Events:    collector,
				Endpoints: c.endpoints,
				Audit:     c.audit,
			})
		})
		elapsed := time.Since(start)

		if err != nil {
			reason := tasks.ReasonOf(err)
			c.taskMetrics.RecordTask(ctx, name, elapsed, false, reason)
			slog.Error("Task failed",
				"event", name,
				"reason", reason,
				"duration", elapsed,
				"error", err)
			c.audit.Record(ctx, audit.Record{
				Event: audit.EventTaskFailed,
				Actor: audit.ActorSystem,
				Detail: map[string]any{
					"event":  name,
					"reason": reason,
					"error":  err.Error(),
				},
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		c.taskMetrics.RecordTask(ctx, name, elapsed, true, "")
		raised = append(raised, collector.raised...)
	}
	return raised, firstErr
}

// eventCollector buffers events raised by one task.
type eventCollector struct {
	raised []events.Event
}

// Raise implements tasks.EventRaiser.
func (c *eventCollector) Raise(ev events.Event) {
	c.raised = append(c.raised, ev)
}

func eventName(ev events.Event) string {
	name := fmt.Sprintf("%T", ev)
	return strings.TrimPrefix(name, "events.")
}
