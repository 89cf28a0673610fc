// Package servicemetrics implements the periodic metrics-reference
// computation and the cleanup of metrics references whose status rows moved
// to Delete. Traffic counters come from the gateway's metrics aggregator;
// the registry-side representation is a set of keyed references per
// business service.
package servicemetrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/metricsagg"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// tModel keys of the metrics keyed references attached to a business
// service.
const (
	tModelKeyMetricsStart       = "uddi:gatewaymesh.org:metrics:start-time"
	tModelKeyMetricsEnd         = "uddi:gatewaymesh.org:metrics:end-time"
	tModelKeyMetricsTotal       = "uddi:gatewaymesh.org:metrics:count-total"
	tModelKeyMetricsSuccess     = "uddi:gatewaymesh.org:metrics:count-success"
	tModelKeyMetricsFault       = "uddi:gatewaymesh.org:metrics:count-fault"
	tModelKeyMetricsAvgResponse = "uddi:gatewaymesh.org:metrics:avg-response-ms"
	tModelKeyMetricsMinResponse = "uddi:gatewaymesh.org:metrics:min-response-ms"
	tModelKeyMetricsMaxResponse = "uddi:gatewaymesh.org:metrics:max-response-ms"
)

// Builder builds metrics workflow tasks.
type Builder struct {
	aggregator metricsagg.Aggregator
	now        func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock; tests use it to pin time.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder returns a Builder reading bins from the given aggregator.
func NewBuilder(aggregator metricsagg.Aggregator, opts ...Option) *Builder {
	b := &Builder{
		aggregator: aggregator,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build implements tasks.Builder.
func (b *Builder) Build(ev events.Event) tasks.Task {
	e, ok := ev.(events.TimerEvent)
	if !ok {
		return nil
	}
	switch e.Kind {
	case events.TimerMetricsPublish:
		return &publishTask{b: b, registryID: e.RegistryID}
	case events.TimerMetricsCleanup:
		return &cleanupTask{registryID: e.RegistryID}
	}
	return nil
}

// target is one business service metrics are computed for, keyed by the
// local service whose traffic bins feed it.
type target struct {
	serviceKey  string
	serviceName string
}

type publishTask struct {
	b          *Builder
	registryID uuid.UUID
}

func (t *publishTask) Execute(ctx context.Context, tc *tasks.Context) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.registryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("Skipping metrics publish, registry no longer exists", "registry_id", t.registryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.registryID)
	}
	if !reg.Enabled || !reg.MetricsEnabled {
		return nil
	}

	targets, err := t.collectTargets(ctx, tc, reg.ID)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	computed := 0
	for serviceID, svcTargets := range targets {
		summary, err := t.b.aggregator.Summary(ctx, serviceID)
		if err != nil {
			slog.Error("Failed to read metrics bin, skipping service",
				"service_id", serviceID,
				"error", err)
			continue
		}
		if summary == nil {
			continue
		}

		refs := buildReferences(summary)
		for _, tgt := range svcTargets {
			if err := t.applyToStatus(ctx, tc, reg.ID, tgt, refs); err != nil {
				return err
			}
			computed++
		}
	}

	slog.Info("Metrics references computed",
		"registry", reg.Name,
		"services", computed)
	return nil
}

// collectTargets maps each local service with metrics enabled to the
// business services its traffic is reported against. Both publish
// directions contribute: ProxiedServiceInfo children for services this
// gateway published, ServiceControls for registry-owned services it fronts.
func (t *publishTask) collectTargets(
	ctx context.Context, tc *tasks.Context, registryID uuid.UUID,
) (map[uuid.UUID][]target, error) {
	targets := make(map[uuid.UUID][]target)

	controls, err := tc.Stores.ServiceControls.Find(ctx, store.Condition{
		store.FieldRegistryID:     registryID,
		store.FieldMetricsEnabled: true,
	})
	if err != nil {
		return nil, tasks.WrapError(tasks.ReasonPersistence, err,
			"load metrics-enabled service controls for registry %s", registryID)
	}
	for _, c := range controls {
		targets[c.ServiceID] = append(targets[c.ServiceID], target{
			serviceKey:  c.ServiceKey,
			serviceName: c.ServiceName,
		})
	}

	infos, err := tc.Stores.ProxiedInfos.Find(ctx, store.Condition{
		store.FieldRegistryID: registryID,
	})
	if err != nil {
		return nil, tasks.WrapError(tasks.ReasonPersistence, err,
			"load proxied service infos for registry %s", registryID)
	}
	for _, info := range infos {
		if !info.MetricsEnabled {
			continue
		}
		children, err := tc.Stores.ProxiedServices.Find(ctx, store.Condition{
			store.FieldProxiedServiceInfoID: info.ID,
		})
		if err != nil {
			return nil, tasks.WrapError(tasks.ReasonPersistence, err,
				"load published services of %s", info.ID)
		}
		for _, child := range children {
			targets[info.ServiceID] = append(targets[info.ServiceID], target{
				serviceKey:  child.ServiceKey,
				serviceName: child.ServiceName,
			})
		}
	}
	return targets, nil
}

// applyToStatus records the computed references against the service's
// status row and advances a pending Publish to Published.
//
// TODO: deliver the computed references to the registry once the metrics
// tModel layout is settled; today only the local state machine advances.
func (t *publishTask) applyToStatus(
	ctx context.Context,
	tc *tasks.Context,
	registryID uuid.UUID,
	tgt target,
	refs []uddi.KeyedReference,
) error {
	rows, err := tc.Stores.ServiceStatuses.Find(ctx, store.Condition{
		store.FieldRegistryID: registryID,
		store.FieldServiceKey: tgt.serviceKey,
	})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load status row for service %s", tgt.serviceKey)
	}
	if len(rows) == 0 {
		// The reconciliation sweep creates status rows; a missing row
		// here just means the sweep has not caught up yet.
		return nil
	}
	row := rows[0]

	switch row.MetricsState {
	case model.ReferenceStatePublish, model.ReferenceStatePublished:
	default:
		return nil
	}

	slog.Debug("Computed metrics references",
		"service_key", tgt.serviceKey,
		"service_name", tgt.serviceName,
		"references", len(refs))

	if row.MetricsState == model.ReferenceStatePublish {
		row.MetricsState = model.ReferenceStatePublished
		if err := tc.Stores.ServiceStatuses.Update(ctx, row); err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"advance metrics state for service %s", tgt.serviceKey)
		}
	}
	return nil
}

// buildReferences renders one metrics bin as registry keyed references.
func buildReferences(s *metricsagg.Summary) []uddi.KeyedReference {
	return []uddi.KeyedReference{
		{TModelKey: tModelKeyMetricsStart, KeyName: "Start Time", KeyValue: s.PeriodStart.UTC().Format(time.RFC3339)},
		{TModelKey: tModelKeyMetricsEnd, KeyName: "End Time", KeyValue: s.PeriodEnd.UTC().Format(time.RFC3339)},
		{TModelKey: tModelKeyMetricsTotal, KeyName: "Total Request Count", KeyValue: fmt.Sprintf("%d", s.Requests)},
		{TModelKey: tModelKeyMetricsSuccess, KeyName: "Success Request Count", KeyValue: fmt.Sprintf("%d", s.Successes)},
		{TModelKey: tModelKeyMetricsFault, KeyName: "Fault Request Count", KeyValue: fmt.Sprintf("%d", s.Faults)},
		{TModelKey: tModelKeyMetricsAvgResponse, KeyName: "Average Response Time", KeyValue: fmt.Sprintf("%d", s.AvgResponseMillis())},
		{TModelKey: tModelKeyMetricsMinResponse, KeyName: "Minimum Response Time", KeyValue: fmt.Sprintf("%d", s.MinResponseMillis)},
		{TModelKey: tModelKeyMetricsMaxResponse, KeyName: "Maximum Response Time", KeyValue: fmt.Sprintf("%d", s.MaxResponseMillis)},
	}
}

// cleanupTask consumes Delete metrics states: nothing was transmitted for
// them, so cleanup is purely local.
type cleanupTask struct {
	registryID uuid.UUID
}

func (t *cleanupTask) Execute(ctx context.Context, tc *tasks.Context) error {
	rows, err := tc.Stores.ServiceStatuses.Find(ctx, store.Condition{
		store.FieldRegistryID: t.registryID,
	})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load status rows for registry %s", t.registryID)
	}

	cleaned := 0
	for _, row := range rows {
		if row.MetricsState != model.ReferenceStateDelete {
			continue
		}
		row.MetricsState = model.ReferenceStateNone
		if err := tc.Stores.ServiceStatuses.Update(ctx, row); err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"clear metrics state for service %s", row.ServiceKey)
		}
		cleaned++
	}

	if cleaned > 0 {
		slog.Info("Metrics cleanup complete",
			"registry_id", t.registryID,
			"cleaned", cleaned)
	}
	return nil
}
