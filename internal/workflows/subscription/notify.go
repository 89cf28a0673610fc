package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// notificationTask processes an inbound push-notification payload. The
// subscription key namespace may be shared across registries, so the task
// disambiguates by matching result service keys against service controls.
type notificationTask struct {
	b     *Builder
	event events.NotificationEvent
}

func (t *notificationTask) Execute(ctx context.Context, tc *tasks.Context) error {
	n, err := uddi.DecodeNotification(t.event.Payload)
	if err != nil {
		return tasks.WrapError(tasks.ReasonRemoteSemantic, err,
			"decode notification from %s", t.event.RemoteAddr)
	}

	sub, err := t.resolveSubscription(ctx, tc, n)
	if err != nil {
		return err
	}
	if sub == nil {
		slog.Warn("Dropping notification, no matching subscription",
			"subscription_key", n.SubscriptionKey,
			"remote_addr", t.event.RemoteAddr)
		tc.Audit.Record(ctx, audit.Record{
			Event: audit.EventSubscriptionLost,
			Actor: audit.ActorSystem,
			Detail: map[string]any{
				"subscription_key": n.SubscriptionKey,
				"remote_addr":      t.event.RemoteAddr,
				"results":          len(n.Results),
			},
		})
		return nil
	}

	reg, err := tc.Stores.Registries.GetByID(ctx, sub.RegistryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("Dropping notification, registry no longer exists", "registry_id", sub.RegistryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", sub.RegistryID)
	}

	if err := processResults(ctx, tc, t.b, reg, sub, n.Results); err != nil {
		return err
	}

	sub.NotifiedTime = n.EndTime
	if sub.NotifiedTime.IsZero() {
		sub.NotifiedTime = t.b.now()
	}
	if err := tc.Stores.Subscriptions.Update(ctx, sub); err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"advance notification watermark for registry %s", reg.Name)
	}

	slog.Info("Processed push notification",
		"registry", reg.Name,
		"results", len(n.Results),
		"notified_time", sub.NotifiedTime)
	return nil
}

// resolveSubscription finds the subscription a notification belongs to.
// With a single candidate the key is authoritative; with several, the
// first candidate whose registry tracks one of the result's service keys
// wins; with none matching, nil is returned and the caller drops the
// notification.
func (t *notificationTask) resolveSubscription(
	ctx context.Context, tc *tasks.Context, n *uddi.Notification,
) (*model.RegistrySubscription, error) {
	candidates, err := tc.Stores.Subscriptions.Find(ctx, store.Condition{
		store.FieldSubscriptionKey: n.SubscriptionKey,
	})
	if err != nil {
		return nil, tasks.WrapError(tasks.ReasonPersistence, err,
			"look up subscriptions for key %s", n.SubscriptionKey)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}

	for _, result := range n.Results {
		for _, candidate := range candidates {
			controls, err := tc.Stores.ServiceControls.Find(ctx, store.Condition{
				store.FieldRegistryID: candidate.RegistryID,
				store.FieldServiceKey: result.ServiceKey,
			})
			if err != nil {
				return nil, tasks.WrapError(tasks.ReasonPersistence, err,
					"disambiguate subscription key %s", n.SubscriptionKey)
			}
			if len(controls) > 0 {
				return candidate, nil
			}
		}
	}
	return nil, nil
}
