package publish

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// deleteTask removes a previously published proxy from the registry and, on
// success, destroys the local records. Services the registry no longer
// knows about count as deleted.
type deleteTask struct {
	b     *Builder
	event events.PublishEvent
}

func (t *deleteTask) Execute(ctx context.Context, tc *tasks.Context) error {
	info := t.event.ServiceInfo
	status := t.event.Status
	if info == nil || status == nil {
		return tasks.NewError(tasks.ReasonInvariant, "delete event carries no proxied service info")
	}
	if status.State != model.PublishStateDelete {
		return tasks.NewError(tasks.ReasonInvariant,
			"proxy delete requested with status %s, want %s", status.State, model.PublishStateDelete)
	}

	reg, err := tc.Stores.Registries.GetByID(ctx, info.RegistryID)
	if errors.Is(err, store.ErrNotFound) {
		// Registry is gone; nothing remote left to clean. Drop the local
		// records and finish.
		slog.Warn("Registry gone, deleting local publish records only",
			"proxied_service_info", info.ID)
		if err := deleteLocalRecords(ctx, tc.Stores, info.ID); err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"delete local publish records of %s", info.ID)
		}
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", info.RegistryID)
	}

	children, err := tc.Stores.ProxiedServices.Find(ctx, store.Condition{
		store.FieldProxiedServiceInfoID: info.ID,
	})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load published services of %s", info.ID)
	}

	keys := make([]string, 0, len(children))
	for _, child := range children {
		keys = append(keys, child.ServiceKey)
	}

	if len(keys) > 0 {
		client := t.b.clients.ClientFor(reg)
		err := client.DeleteBusinessServices(ctx, keys)
		if err != nil && !errors.Is(err, uddi.ErrInvalidKey) {
			recordState(ctx, tc, status, model.PublishStateDeleteFailed)
			return tasks.ClassifyRemote(err, "delete business services on registry %s", reg.Name)
		}
	}

	if err := deleteLocalRecords(ctx, tc.Stores, info.ID); err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"delete local publish records of %s", info.ID)
	}

	slog.Info("Deleted proxy from registry",
		"registry", reg.Name,
		"service_keys", keys)
	return nil
}
