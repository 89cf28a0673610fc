// Package monitor keeps local ServiceControl records consistent with
// registry-owned business services: inbound change reports refresh the
// local copy, deletion reports flag the control so the gateway can warn
// that its backing endpoint disappeared.
package monitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// Builder builds monitoring tasks.
type Builder struct {
	clients uddi.ClientFactory
}

// NewBuilder returns a Builder with the given registry client factory.
func NewBuilder(clients uddi.ClientFactory) *Builder {
	return &Builder{clients: clients}
}

// Build implements tasks.Builder.
func (b *Builder) Build(ev events.Event) tasks.Task {
	switch e := ev.(type) {
	case events.BusinessServiceUpdateEvent:
		return &updateTask{b: b, event: e}
	case events.UpdateAllMonitoredServicesEvent:
		return &fanoutTask{registryID: e.RegistryID}
	}
	return nil
}

// updateTask applies one reported business service change to the matching
// service controls.
type updateTask struct {
	b     *Builder
	event events.BusinessServiceUpdateEvent
}

func (t *updateTask) Execute(ctx context.Context, tc *tasks.Context) error {
	controls, err := tc.Stores.ServiceControls.Find(ctx, store.Condition{
		store.FieldRegistryID: t.event.RegistryID,
		store.FieldServiceKey: t.event.ServiceKey,
	})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load service controls for %s", t.event.ServiceKey)
	}
	if len(controls) == 0 {
		slog.Debug("Ignoring update for untracked service", "service_key", t.event.ServiceKey)
		return nil
	}

	if t.event.Deleted {
		return t.markRemoved(ctx, tc, controls)
	}
	return t.refresh(ctx, tc, controls)
}

// markRemoved flags every matching control. The control row survives so the
// gateway can surface the condition; removing it is an operator decision.
func (t *updateTask) markRemoved(ctx context.Context, tc *tasks.Context, controls []*model.ServiceControl) error {
	for _, control := range controls {
		if control.HasHadEndpointRemoved {
			continue
		}
		control.HasHadEndpointRemoved = true
		if err := tc.Stores.ServiceControls.Update(ctx, control); err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"flag endpoint removal on control %s", control.ID)
		}
		slog.Warn("Registry business service deleted, flagging control",
			"service_key", control.ServiceKey,
			"service_name", control.ServiceName)
		tc.Audit.Record(ctx, audit.Record{
			Event: audit.EventEndpointRemoved,
			Actor: audit.ActorSystem,
			Detail: map[string]any{
				"registry_id":  control.RegistryID.String(),
				"service_key":  control.ServiceKey,
				"service_name": control.ServiceName,
			},
		})
	}
	return nil
}

// refresh re-reads the business service from the registry and folds the
// current names into the controls. A service the registry no longer returns
// counts as deleted.
func (t *updateTask) refresh(ctx context.Context, tc *tasks.Context, controls []*model.ServiceControl) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.event.RegistryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("Skipping refresh, registry no longer exists", "registry_id", t.event.RegistryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.event.RegistryID)
	}

	client := t.b.clients.ClientFor(reg)
	services, err := client.GetBusinessServices(ctx, []string{t.event.ServiceKey})
	if err != nil {
		return tasks.ClassifyRemote(err, "fetch business service %s from registry %s",
			t.event.ServiceKey, reg.Name)
	}
	if len(services) == 0 {
		return t.markRemoved(ctx, tc, controls)
	}
	current := services[0]

	for _, control := range controls {
		changed := t.event.ForceUpdate
		if control.ServiceName != current.Name {
			control.ServiceName = current.Name
			changed = true
		}
		if current.BusinessKey != "" && control.BusinessKey != current.BusinessKey {
			control.BusinessKey = current.BusinessKey
			changed = true
		}
		if !changed {
			continue
		}
		if err := tc.Stores.ServiceControls.Update(ctx, control); err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"refresh control %s", control.ID)
		}
		slog.Info("Refreshed monitored service from registry",
			"registry", reg.Name,
			"service_key", control.ServiceKey,
			"service_name", control.ServiceName)
	}
	return nil
}

// fanoutTask raises a forced update for every service of the registry that
// is under UDDI control.
type fanoutTask struct {
	registryID uuid.UUID
}

func (t *fanoutTask) Execute(ctx context.Context, tc *tasks.Context) error {
	controls, err := tc.Stores.ServiceControls.Find(ctx, store.Condition{
		store.FieldRegistryID:       t.registryID,
		store.FieldUnderUDDIControl: true,
	})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load monitored services for registry %s", t.registryID)
	}

	seen := make(map[string]bool, len(controls))
	for _, control := range controls {
		if seen[control.ServiceKey] {
			continue
		}
		seen[control.ServiceKey] = true
		tc.Events.Raise(events.BusinessServiceUpdateEvent{
			RegistryID:  t.registryID,
			ServiceKey:  control.ServiceKey,
			ForceUpdate: true,
		})
	}

	slog.Info("Raised refresh for all monitored services",
		"registry_id", t.registryID,
		"services", len(seen))
	return nil
}
