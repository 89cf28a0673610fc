// Package subscription implements the registry subscription lifecycle:
// subscribe, poll, inbound notification processing, renewal, and
// unsubscribe. One RegistrySubscription row exists per registry; this
// workflow is its only writer.
package subscription

import (
	"time"

	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

const (
	// DefaultExpiryInterval is how far in the future new subscriptions
	// expire.
	DefaultExpiryInterval = 24 * time.Hour

	// DefaultRenewThreshold is the remaining lifetime under which poll
	// and notification processing raise a resubscribe.
	DefaultRenewThreshold = 12 * time.Hour
)

// Builder builds subscription workflow tasks.
type Builder struct {
	clients        uddi.ClientFactory
	expiryInterval time.Duration
	renewThreshold time.Duration
	now            func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithExpiryInterval overrides the subscription expiry interval.
func WithExpiryInterval(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.expiryInterval = d
		}
	}
}

// WithRenewThreshold overrides the renewal threshold.
func WithRenewThreshold(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.renewThreshold = d
		}
	}
}

// WithClock overrides the clock; tests use it to pin time.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder returns a Builder with the given registry client factory.
func NewBuilder(clients uddi.ClientFactory, opts ...Option) *Builder {
	b := &Builder{
		clients:        clients,
		expiryInterval: DefaultExpiryInterval,
		renewThreshold: DefaultRenewThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build implements tasks.Builder.
func (b *Builder) Build(ev events.Event) tasks.Task {
	switch e := ev.(type) {
	case events.SubscribeEvent:
		if e.Kind == events.SubscribeKindUnsubscribe {
			return &unsubscribeTask{b: b, registryID: e.RegistryID}
		}
		return &subscribeTask{b: b, registryID: e.RegistryID}
	case events.TimerEvent:
		if e.Kind == events.TimerSubscriptionPoll {
			return &pollTask{b: b, registryID: e.RegistryID}
		}
	case events.PollEvent:
		return &pollTask{b: b, registryID: e.RegistryID, start: e.StartTime, end: e.EndTime}
	case events.NotificationEvent:
		return &notificationTask{b: b, event: e}
	}
	return nil
}
