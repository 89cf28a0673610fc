package coordinator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

// EntityType names the persistent entities whose changes the coordinator
// reacts to.
type EntityType string

const (
	// EntityRegistry covers registry configuration rows.
	EntityRegistry EntityType = "Registry"

	// EntityProxiedServiceInfo covers publish records and their children.
	EntityProxiedServiceInfo EntityType = "ProxiedServiceInfo"

	// EntityServiceControl covers monitored service controls.
	EntityServiceControl EntityType = "ServiceControl"
)

// Change is one persistent entity change reported by the hosting gateway's
// admin layer.
type Change struct {
	Type EntityType
	ID   uuid.UUID

	// Deleted distinguishes removals from creates and updates; the
	// coordinator re-reads the row for the latter.
	Deleted bool
}

// EntityChanged implements Coordinator. The reaction runs on the worker
// goroutine behind whatever work is already queued.
func (c *defaultCoordinator) EntityChanged(ch Change) {
	var fn func(ctx context.Context) ([]events.Event, error)
	switch ch.Type {
	case EntityRegistry:
		fn = func(ctx context.Context) ([]events.Event, error) {
			return c.registryChanged(ctx, ch)
		}
	case EntityProxiedServiceInfo, EntityServiceControl:
		// Source entities feed the status table; converge it.
		fn = c.sweepFn
	default:
		slog.Warn("Ignoring change of unknown entity type", "type", ch.Type)
		return
	}

	select {
	case c.queue <- item{fn: fn}:
	case <-c.done:
		slog.Warn("Dropping entity change, coordinator stopped",
			"type", ch.Type,
			"id", ch.ID)
	}
}

// registryChanged re-syncs one registry's schedule and raises the
// subscription lifecycle event the change implies. A configuration update
// resubscribes; the subscribe task tears the old subscription down first.
func (c *defaultCoordinator) registryChanged(ctx context.Context, ch Change) ([]events.Event, error) {
	if ch.Deleted {
		c.dropSchedule(ch.ID.String())
		return []events.Event{events.SubscribeEvent{
			RegistryID: ch.ID,
			Kind:       events.SubscribeKindUnsubscribe,
		}}, nil
	}

	reg, err := c.stores.Registries.GetByID(ctx, ch.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.dropSchedule(ch.ID.String())
		return []events.Event{events.SubscribeEvent{
			RegistryID: ch.ID,
			Kind:       events.SubscribeKindUnsubscribe,
		}}, nil
	}
	if err != nil {
		return nil, err
	}

	c.syncRegistrySchedule(reg)

	kind := events.SubscribeKindSubscribe
	if !reg.Enabled {
		kind = events.SubscribeKindUnsubscribe
	}
	return []events.Event{events.SubscribeEvent{RegistryID: reg.ID, Kind: kind}}, nil
}
