package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// pollTask asks the registry what changed since the last watermark and
// raises update events for monitored services. Zero start/end means poll
// from the stored watermark to now (the periodic case); an explicit range
// comes from a PollEvent.
type pollTask struct {
	b          *Builder
	registryID uuid.UUID
	start      time.Time
	end        time.Time
}

func (t *pollTask) Execute(ctx context.Context, tc *tasks.Context) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.registryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("Skipping poll, registry no longer exists", "registry_id", t.registryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.registryID)
	}

	subs, err := tc.Stores.Subscriptions.Find(ctx, store.Condition{store.FieldRegistryID: reg.ID})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load subscription for registry %s", reg.Name)
	}
	if len(subs) == 0 {
		slog.Warn("Poll fired but registry has no subscription", "registry", reg.Name)
		return nil
	}
	sub := subs[0]
	if !sub.PollMode() {
		slog.Debug("Skipping poll, subscription is in push mode", "registry", reg.Name)
		return nil
	}

	from := t.start
	if from.IsZero() {
		from = sub.CheckTime
	}
	to := t.end
	if to.IsZero() {
		to = t.b.now()
	}

	client := t.b.clients.ClientFor(reg)
	results, err := client.PollSubscription(ctx, from, to, sub.SubscriptionKey)
	if err != nil {
		return tasks.ClassifyRemote(err, "poll subscription %s on registry %s", sub.SubscriptionKey, reg.Name)
	}

	if err := processResults(ctx, tc, t.b, reg, sub, results); err != nil {
		return err
	}

	sub.CheckTime = to
	if err := tc.Stores.Subscriptions.Update(ctx, sub); err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "advance poll watermark for registry %s", reg.Name)
	}

	slog.Info("Subscription poll complete",
		"registry", reg.Name,
		"results", len(results),
		"watermark", to)
	return nil
}

// processResults is shared by poll and notification handling: raise a
// BusinessServiceUpdateEvent for every result tracked under UDDI control,
// then raise one resubscribe if the subscription is close to expiry.
func processResults(
	ctx context.Context,
	tc *tasks.Context,
	b *Builder,
	reg *model.Registry,
	sub *model.RegistrySubscription,
	results []uddi.SubscriptionResult,
) error {
	for _, result := range results {
		controls, err := tc.Stores.ServiceControls.Find(ctx, store.Condition{
			store.FieldRegistryID:       reg.ID,
			store.FieldServiceKey:       result.ServiceKey,
			store.FieldUnderUDDIControl: true,
		})
		if err != nil {
			return tasks.WrapError(tasks.ReasonPersistence, err,
				"look up service controls for %s on registry %s", result.ServiceKey, reg.Name)
		}
		if len(controls) == 0 {
			continue
		}
		tc.Events.Raise(events.BusinessServiceUpdateEvent{
			RegistryID: reg.ID,
			ServiceKey: result.ServiceKey,
			Deleted:    result.Deleted,
		})
	}

	if sub.Expiry.Sub(b.now()) < b.renewThreshold {
		slog.Info("Subscription close to expiry, raising resubscribe",
			"registry", reg.Name,
			"expiry", sub.Expiry)
		tc.Events.Raise(events.SubscribeEvent{RegistryID: reg.ID, Kind: events.SubscribeKindSubscribe})
	}
	return nil
}
