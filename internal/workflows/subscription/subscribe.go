package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
)

// subscribeTask creates or renews the registry subscription. A renewal is a
// full resubscribe: the old key is deleted best-effort and a fresh one is
// obtained, so a half-failed renewal can never leave the row pointing at a
// dead subscription silently.
type subscribeTask struct {
	b          *Builder
	registryID uuid.UUID
}

func (t *subscribeTask) Execute(ctx context.Context, tc *tasks.Context) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.registryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("Skipping subscribe, registry no longer exists", "registry_id", t.registryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.registryID)
	}
	if !reg.Enabled {
		slog.Info("Skipping subscribe, registry disabled", "registry", reg.Name)
		return nil
	}

	client := t.b.clients.ClientFor(reg)
	existing := t.findSubscription(ctx, tc, reg.ID)

	// Best-effort teardown of the previous subscription.
	if existing != nil && existing.SubscriptionKey != "" {
		if err := client.DeleteSubscription(ctx, existing.SubscriptionKey); err != nil {
			slog.Warn("Failed to delete previous subscription, continuing",
				"registry", reg.Name,
				"subscription_key", existing.SubscriptionKey,
				"error", err)
		}
	}

	bindingKey, interval := t.resolvePushTarget(ctx, tc, reg)
	pollMode := bindingKey == ""

	now := t.b.now()
	expiry := now.Add(t.b.expiryInterval)
	key, err := client.Subscribe(ctx, expiry, interval, bindingKey)
	if err != nil {
		return tasks.ClassifyRemote(err, "subscribe to registry %s", reg.Name)
	}

	sub := existing
	if sub == nil {
		sub = &model.RegistrySubscription{RegistryID: reg.ID}
	}
	sub.SubscriptionKey = key
	sub.Expiry = expiry
	sub.NotifiedTime = time.Time{}
	if pollMode {
		sub.CheckTime = now
	} else {
		sub.CheckTime = time.Time{}
	}

	if err := t.persist(ctx, tc, sub, existing != nil); err != nil {
		// The registry-side subscription exists but we cannot remember
		// it. Compensate by unsubscribing remotely; if that also fails
		// the orphan is recorded on the audit channel.
		if delErr := client.DeleteSubscription(ctx, key); delErr != nil {
			tc.Audit.Record(ctx, audit.Record{
				Event: audit.EventCompensationFailed,
				Actor: audit.ActorSystem,
				Detail: map[string]any{
					"operation":        "delete_subscription",
					"registry":         reg.Name,
					"subscription_key": key,
					"error":            delErr.Error(),
				},
			})
		}
		return tasks.WrapError(tasks.ReasonPersistence, err, "persist subscription for registry %s", reg.Name)
	}

	slog.Info("Subscribed to registry",
		"registry", reg.Name,
		"subscription_key", key,
		"poll_mode", pollMode,
		"expiry", expiry)
	return nil
}

func (t *subscribeTask) findSubscription(ctx context.Context, tc *tasks.Context, registryID uuid.UUID) *model.RegistrySubscription {
	subs, err := tc.Stores.Subscriptions.Find(ctx, store.Condition{store.FieldRegistryID: registryID})
	if err != nil || len(subs) == 0 {
		return nil
	}
	return subs[0]
}

// resolvePushTarget returns the notification binding key and interval, or
// an empty key for poll mode. Resolution failures degrade to poll mode
// rather than failing the subscribe.
func (t *subscribeTask) resolvePushTarget(ctx context.Context, tc *tasks.Context, reg *model.Registry) (string, time.Duration) {
	if !reg.SubscribeForNotifications {
		return "", 0
	}
	bindingKey, interval, err := tc.Endpoints.BindingKey(ctx, tc.Stores, reg)
	if err != nil {
		slog.Warn("Cannot resolve notification binding key, falling back to polling",
			"registry", reg.Name,
			"error", err)
		return "", 0
	}
	return bindingKey, interval
}

func (t *subscribeTask) persist(ctx context.Context, tc *tasks.Context, sub *model.RegistrySubscription, update bool) error {
	if update {
		return tc.Stores.Subscriptions.Update(ctx, sub)
	}
	return tc.Stores.Subscriptions.Create(ctx, sub)
}

// unsubscribeTask tears down the registry subscription.
type unsubscribeTask struct {
	b          *Builder
	registryID uuid.UUID
}

func (t *unsubscribeTask) Execute(ctx context.Context, tc *tasks.Context) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.registryID)
	if errors.Is(err, store.ErrNotFound) {
		reg = nil
	} else if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.registryID)
	}

	subs, err := tc.Stores.Subscriptions.Find(ctx, store.Condition{store.FieldRegistryID: t.registryID})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load subscription for registry %s", t.registryID)
	}
	if len(subs) == 0 {
		slog.Warn("Unsubscribe requested but no subscription exists", "registry_id", t.registryID)
		return nil
	}
	sub := subs[0]

	if sub.SubscriptionKey == "" {
		slog.Warn("Subscription row has no key, deleting local row only", "registry_id", t.registryID)
	} else if reg != nil {
		client := t.b.clients.ClientFor(reg)
		if err := client.DeleteSubscription(ctx, sub.SubscriptionKey); err != nil {
			return tasks.ClassifyRemote(err, "delete subscription %s on registry %s", sub.SubscriptionKey, reg.Name)
		}
	}

	// Registry-side state is gone; a failed local delete is non-fatal.
	if err := tc.Stores.Subscriptions.Delete(ctx, sub.ID); err != nil {
		slog.Error("Failed to delete local subscription row",
			"registry_id", t.registryID,
			"subscription_key", sub.SubscriptionKey,
			"error", err)
	}
	return nil
}
