// Package cluster resolves the gateway cluster's externally reachable
// address. Which node is the elected primary is a separate concern the
// reconciliation layer does not decide; see DESIGN.md on the masterOnly
// event flag.
package cluster

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
)

// Resolver reports the hostname and HTTPS port remote parties use to reach
// this cluster.
type Resolver interface {
	ExternalAddress(ctx context.Context) (host string, port int, err error)
}

// StaticResolver is a Resolver with a fixed address, configured at startup.
type StaticResolver struct {
	Host string
	Port int
}

// ExternalAddress implements Resolver.
func (r StaticResolver) ExternalAddress(_ context.Context) (string, int, error) {
	if r.Host == "" {
		return "", 0, fmt.Errorf("cluster hostname is not configured")
	}
	port := r.Port
	if port == 0 {
		port = 443
	}
	return r.Host, port, nil
}

// WsdlURL returns the externally reachable URL serving a local service's
// WSDL document.
func WsdlURL(ctx context.Context, r Resolver, serviceID uuid.UUID) (string, error) {
	host, port, err := r.ExternalAddress(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s:%d/ssg/wsdl?serviceoid=%s", host, port, serviceID), nil
}

// EndpointURL returns the externally reachable endpoint URL of a local
// service.
func EndpointURL(ctx context.Context, r Resolver, svc *gateway.Service) (string, error) {
	host, port, err := r.ExternalAddress(ctx)
	if err != nil {
		return "", err
	}
	uri := svc.RoutingURI
	if uri == "" {
		uri = fmt.Sprintf("/service/%s", svc.ID)
	}
	return fmt.Sprintf("https://%s:%d%s", host, port, uri), nil
}

// NotificationURL returns the URL the registry should push subscription
// notifications to for the given listener service.
func NotificationURL(ctx context.Context, r Resolver, listenerServiceID uuid.UUID) (string, error) {
	host, port, err := r.ExternalAddress(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s:%d/uddi/notifications/%s", host, port, listenerServiceID), nil
}
