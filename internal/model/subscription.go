package model

import (
	"time"

	"github.com/google/uuid"
)

// RegistrySubscription tracks the one registry-side subscription held per
// registry. Rows are created, renewed, and deleted exclusively by the
// subscription workflow.
type RegistrySubscription struct {
	ID         uuid.UUID
	RegistryID uuid.UUID

	// SubscriptionKey is the opaque registry-assigned key. The key
	// namespace may be shared across registries, so it is not unique on
	// its own.
	SubscriptionKey string

	// Expiry is when the subscription lapses registry-side. The poll and
	// notification tasks raise a resubscribe once the remaining lifetime
	// drops under the renew threshold.
	Expiry time.Time

	// CheckTime is the last-checked watermark for poll mode. Zero when
	// the subscription is in push mode.
	CheckTime time.Time

	// NotifiedTime is the watermark advanced by push notifications.
	NotifiedTime time.Time
}

// PollMode reports whether this subscription is serviced by polling rather
// than push notifications.
func (s *RegistrySubscription) PollMode() bool {
	return !s.CheckTime.IsZero()
}
