// Package reconcile derives the BusinessServiceStatus rows from their
// source entities. A row exists for a (registry, service key) pair exactly
// while some ProxiedService child or ServiceControl references the pair;
// the sweep creates missing rows, garbage-collects orphans, and folds the
// sources' metricsEnabled flags into the metrics state machine.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

// Result counts what one sweep changed.
type Result struct {
	Created int
	Updated int
	Deleted int
}

// pair keys the desired-state map.
type pair struct {
	registryID uuid.UUID
	serviceKey string
}

// desired is what the sources say about one pair.
type desired struct {
	serviceName    string
	metricsEnabled bool
}

// Sweep reconciles all status rows against the current source entities.
// It is idempotent; sweeping an already consistent store changes nothing.
func Sweep(ctx context.Context, s store.Stores) (Result, error) {
	var res Result

	want, err := desiredState(ctx, s)
	if err != nil {
		return res, err
	}

	// Walk every status row, not rows per known registry: rows whose
	// registry was deleted have no surviving source and must be collected
	// too.
	rows, err := s.ServiceStatuses.Find(ctx, store.Condition{})
	if err != nil {
		return res, err
	}

	seen := make(map[pair]bool, len(want))
	for _, row := range rows {
		p := pair{registryID: row.RegistryID, serviceKey: row.ServiceKey}
		d, ok := want[p]
		if !ok {
			if err := s.ServiceStatuses.Delete(ctx, row.ID); err != nil {
				return res, err
			}
			res.Deleted++
			continue
		}
		seen[p] = true
		if syncRow(row, d) {
			if err := s.ServiceStatuses.Update(ctx, row); err != nil {
				return res, err
			}
			res.Updated++
		}
	}

	for p, d := range want {
		if seen[p] {
			continue
		}
		row := &model.BusinessServiceStatus{
			RegistryID:   p.registryID,
			ServiceKey:   p.serviceKey,
			ServiceName:  d.serviceName,
			MetricsState: model.ReferenceStateNone,
			PolicyState:  model.ReferenceStateNone,
		}
		row.UpdateMetricsState(d.metricsEnabled)
		if err := s.ServiceStatuses.Create(ctx, row); err != nil {
			return res, err
		}
		res.Created++
	}

	if res.Created+res.Updated+res.Deleted > 0 {
		slog.Info("Reconciliation sweep complete",
			"created", res.Created,
			"updated", res.Updated,
			"deleted", res.Deleted)
	}
	return res, nil
}

// desiredState collects every pair the source entities reference. When both
// a published proxy and a service control reference the same pair, metrics
// stay enabled if either side wants them.
func desiredState(ctx context.Context, s store.Stores) (map[pair]desired, error) {
	want := make(map[pair]desired)

	infos, err := s.ProxiedInfos.Find(ctx, store.Condition{})
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		children, err := s.ProxiedServices.Find(ctx, store.Condition{
			store.FieldProxiedServiceInfoID: info.ID,
		})
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			merge(want, pair{registryID: info.RegistryID, serviceKey: child.ServiceKey}, desired{
				serviceName:    child.ServiceName,
				metricsEnabled: info.MetricsEnabled,
			})
		}
	}

	controls, err := s.ServiceControls.Find(ctx, store.Condition{})
	if err != nil {
		return nil, err
	}
	for _, control := range controls {
		merge(want, pair{registryID: control.RegistryID, serviceKey: control.ServiceKey}, desired{
			serviceName:    control.ServiceName,
			metricsEnabled: control.MetricsEnabled,
		})
	}
	return want, nil
}

func merge(want map[pair]desired, p pair, d desired) {
	if existing, ok := want[p]; ok {
		d.metricsEnabled = d.metricsEnabled || existing.metricsEnabled
		if d.serviceName == "" {
			d.serviceName = existing.serviceName
		}
	}
	want[p] = d
}

// syncRow folds the desired state into an existing row, reporting whether
// anything changed.
func syncRow(row *model.BusinessServiceStatus, d desired) bool {
	changed := false
	if d.serviceName != "" && row.ServiceName != d.serviceName {
		row.ServiceName = d.serviceName
		changed = true
	}
	before := row.MetricsState
	row.UpdateMetricsState(d.metricsEnabled)
	if row.MetricsState != before {
		changed = true
	}
	return changed
}
