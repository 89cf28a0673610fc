package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/reconcile"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const (
	// MinIntervalMillis is the shortest accepted periodic interval.
	MinIntervalMillis int64 = 5_000

	// MaxIntervalMillis is the longest accepted periodic interval, one
	// year.
	MaxIntervalMillis int64 = 31_536_000_000

	// DefaultMetricsCleanupInterval is the fixed period of the metrics
	// cleanup timer; it is not registry-configurable.
	DefaultMetricsCleanupInterval = time.Minute

	// DefaultPolicySweepInterval is the fixed period of the per-registry
	// policy sweep. The sweep short-circuits when no row has a pending
	// policy state, so the steady-state cost is one store query.
	DefaultPolicySweepInterval = time.Minute
)

// ValidInterval reports whether a configured millisecond interval is
// schedulable.
func ValidInterval(ms int64) bool {
	return ms >= MinIntervalMillis && ms <= MaxIntervalMillis
}

// registryRuntime tracks the cron entries scheduled for one registry. An
// entry id of zero means not scheduled.
type registryRuntime struct {
	pollEntry    cron.EntryID
	pollInterval time.Duration

	metricsEntry    cron.EntryID
	metricsInterval time.Duration

	cleanupEntry    cron.EntryID
	cleanupInterval time.Duration

	policyEntry    cron.EntryID
	policyInterval time.Duration
}

// syncSchedules brings the cron schedule in line with all registry rows and
// returns the subscribe events owed to newly scheduled registries.
func (c *defaultCoordinator) syncSchedules(ctx context.Context) ([]events.Event, error) {
	registries, err := c.stores.Registries.List(ctx)
	if err != nil {
		return nil, err
	}

	alive := make(map[string]bool, len(registries))
	var raised []events.Event
	for _, reg := range registries {
		alive[reg.ID.String()] = true
		c.syncRegistrySchedule(reg)
		if reg.Enabled {
			raised = append(raised, events.SubscribeEvent{
				RegistryID: reg.ID,
				Kind:       events.SubscribeKindSubscribe,
			})
		}
	}

	for id := range c.runtimes {
		if !alive[id] {
			c.dropSchedule(id)
		}
	}
	return raised, nil
}

// syncRegistrySchedule diffs the registry's desired timers against what is
// scheduled and only touches entries whose interval changed.
func (c *defaultCoordinator) syncRegistrySchedule(reg *model.Registry) {
	rt := c.runtimes[reg.ID.String()]
	if rt == nil {
		rt = &registryRuntime{}
		c.runtimes[reg.ID.String()] = rt
	}

	// Polling and push notifications are mutually exclusive; a push-mode
	// registry gets no poll timer.
	pollInterval := c.desiredInterval(reg,
		reg.MonitoringEnabled && !reg.SubscribeForNotifications, reg.MonitoringFrequency, "monitoring")
	metricsInterval := c.desiredInterval(reg, reg.MetricsEnabled, reg.MetricPublishFrequency, "metrics")

	c.reschedule(&rt.pollEntry, &rt.pollInterval, pollInterval,
		events.TimerEvent{RegistryID: reg.ID, Kind: events.TimerSubscriptionPoll})
	c.reschedule(&rt.metricsEntry, &rt.metricsInterval, metricsInterval,
		events.TimerEvent{RegistryID: reg.ID, Kind: events.TimerMetricsPublish})

	// The cleanup timer exists exactly while metrics publishing is
	// scheduled; its interval is fixed.
	cleanupInterval := time.Duration(0)
	if metricsInterval > 0 {
		cleanupInterval = c.metricsCleanupInterval
	}
	c.reschedule(&rt.cleanupEntry, &rt.cleanupInterval, cleanupInterval,
		events.TimerEvent{RegistryID: reg.ID, Kind: events.TimerMetricsCleanup})

	// Every enabled registry gets the periodic policy sweep; its interval
	// is fixed.
	policyInterval := time.Duration(0)
	if reg.Enabled {
		policyInterval = c.policySweepInterval
	}
	c.reschedule(&rt.policyEntry, &rt.policyInterval, policyInterval,
		events.WsPolicyEvent{RegistryID: reg.ID})

	slog.Debug("Registry schedule synced",
		"registry", reg.Name,
		"poll_interval", pollInterval,
		"metrics_interval", metricsInterval,
		"policy_interval", policyInterval)
}

// desiredInterval returns the timer interval for an enabled activity, or
// zero when the activity should not run. Out-of-range intervals disable the
// timer rather than clamping silently.
func (c *defaultCoordinator) desiredInterval(reg *model.Registry, enabled bool, ms int64, activity string) time.Duration {
	if !reg.Enabled || !enabled {
		return 0
	}
	if !ValidInterval(ms) {
		slog.Warn("Interval out of range, timer not scheduled",
			"registry", reg.Name,
			"activity", activity,
			"interval_ms", ms,
			"min_ms", MinIntervalMillis,
			"max_ms", MaxIntervalMillis)
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// reschedule converges one cron entry on the desired interval. Zero desired
// removes the entry.
func (c *defaultCoordinator) reschedule(entry *cron.EntryID, current *time.Duration, desired time.Duration, ev events.Event) {
	if *entry != 0 && *current == desired {
		return
	}
	if *entry != 0 {
		c.cron.Remove(*entry)
		*entry = 0
	}
	*current = desired
	if desired == 0 {
		return
	}
	*entry = c.cron.Schedule(cron.Every(desired), cron.FuncJob(func() {
		c.NotifyEvent(ev)
	}))
}

// dropSchedule removes all cron entries of one registry.
func (c *defaultCoordinator) dropSchedule(id string) {
	rt := c.runtimes[id]
	if rt == nil {
		return
	}
	for _, e := range []cron.EntryID{rt.pollEntry, rt.metricsEntry, rt.cleanupEntry, rt.policyEntry} {
		if e != 0 {
			c.cron.Remove(e)
		}
	}
	delete(c.runtimes, id)
}

// sweepFn runs a reconciliation sweep on the worker goroutine.
func (c *defaultCoordinator) sweepFn(ctx context.Context) ([]events.Event, error) {
	var res reconcile.Result
	err := c.tx.WithinTransaction(ctx, func(ctx context.Context, s store.Stores) error {
		var sweepErr error
		res, sweepErr = reconcile.Sweep(ctx, s)
		return sweepErr
	})
	c.sweepMetrics.RecordSweep(ctx, res.Created, res.Updated, res.Deleted, err == nil)
	return nil, err
}
