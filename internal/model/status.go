package model

import (
	"github.com/google/uuid"
)

// ReferenceState is the 4-state lifecycle shared by the metrics-reference
// and policy-attachment columns of BusinessServiceStatus.
type ReferenceState string

const (
	// ReferenceStateNone means nothing is attached and nothing is wanted.
	ReferenceStateNone ReferenceState = "NONE"

	// ReferenceStatePublish means an attachment is wanted but has not
	// been pushed to the registry yet.
	ReferenceStatePublish ReferenceState = "PUBLISH"

	// ReferenceStatePublished means the attachment exists registry-side.
	ReferenceStatePublished ReferenceState = "PUBLISHED"

	// ReferenceStateDelete means a published attachment should be
	// removed from the registry.
	ReferenceStateDelete ReferenceState = "DELETE"
)

// BusinessServiceStatus is the reconciliation row keyed by
// (registry, service key). A row exists iff at least one surviving source
// entity (ProxiedServiceInfo child or ServiceControl) references the pair;
// the sweep garbage-collects the rest.
type BusinessServiceStatus struct {
	ID         uuid.UUID
	RegistryID uuid.UUID

	ServiceKey  string
	ServiceName string

	MetricsState ReferenceState
	PolicyState  ReferenceState

	// PolicyTModelKey and PolicyURL describe the currently attached
	// policy tModel. Empty key with a non-empty URL denotes a remote
	// policy referenced by URL only.
	PolicyTModelKey string
	PolicyURL       string
}

// UpdateMetricsState applies the desired-state transition derived from the
// source entity's metricsEnabled flag. Disabling before the reference was
// ever pushed cancels the pending publish without contacting the registry.
func (b *BusinessServiceStatus) UpdateMetricsState(metricsEnabled bool) {
	if metricsEnabled {
		if b.MetricsState == ReferenceStateNone {
			b.MetricsState = ReferenceStatePublish
		}
		return
	}
	switch b.MetricsState {
	case ReferenceStatePublished:
		b.MetricsState = ReferenceStateDelete
	case ReferenceStatePublish:
		b.MetricsState = ReferenceStateNone
	}
}
