// Package gateway exposes the gateway's own service catalog to the
// reconciliation layer. The catalog is owned by the hosting gateway; this
// package only defines the boundary.
package gateway

import (
	"context"

	"github.com/google/uuid"
)

// NotificationListenerWsdl is the sentinel WSDL source identifying the
// internal subscription notification listener service. The subscription
// workflow publishes this service's endpoint as the push-notification
// target.
const NotificationListenerWsdl = "internal:uddi-subscription-listener"

// Service is one local gateway service.
type Service struct {
	ID   uuid.UUID
	Name string

	// WsdlSource identifies where the service's WSDL came from; internal
	// services carry sentinel values like NotificationListenerWsdl.
	WsdlSource string

	// RoutingURI is the service's path on the gateway's external
	// listener.
	RoutingURI string

	// Wsdl is the current WSDL document.
	Wsdl []byte
}

// Catalog reads the gateway's local services.
//
//go:generate mockgen -destination=mocks/mock_catalog.go -package=mocks github.com/gatewaymesh/uddi-reconciler/internal/gateway Catalog
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context) ([]*Service, error)
}
