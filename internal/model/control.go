package model

import (
	"github.com/google/uuid"
)

// ServiceControl is the inverse of ProxiedServiceInfo: a registry-owned
// business service that a local service is bound to and optionally
// monitored under. While UnderUDDIControl is set, local WSDL edits are
// blocked and the registry is the source of truth.
type ServiceControl struct {
	ID         uuid.UUID
	RegistryID uuid.UUID

	// ServiceID identifies the local gateway service fronting the
	// registry-owned business service.
	ServiceID uuid.UUID

	// ServiceKey/ServiceName identify the business service registry-side.
	// ServiceKey is the join key when processing inbound change
	// notifications.
	ServiceKey  string
	ServiceName string

	BusinessKey  string
	BusinessName string

	UnderUDDIControl      bool
	HasHadEndpointRemoved bool
	MetricsEnabled        bool
}
