package coordinator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// endpointResolver resolves the push-notification target for a registry.
// The target is the internal notification listener service, which must
// itself have been published into the registry so the registry holds a
// binding to deliver to.
type endpointResolver struct {
	catalog  gateway.Catalog
	clients  uddi.ClientFactory
	resolver cluster.Resolver
}

// NewEndpointResolver returns the default tasks.EndpointResolver.
func NewEndpointResolver(catalog gateway.Catalog, clients uddi.ClientFactory, resolver cluster.Resolver) tasks.EndpointResolver {
	return &endpointResolver{catalog: catalog, clients: clients, resolver: resolver}
}

// BindingKey implements tasks.EndpointResolver.
func (r *endpointResolver) BindingKey(ctx context.Context, s store.Stores, reg *model.Registry) (string, time.Duration, error) {
	_, child, err := r.publishedListener(ctx, s, reg)
	if err != nil {
		return "", 0, err
	}

	client := r.clients.ClientFor(reg)
	bindingKey, err := client.GetBindingKeyForService(ctx, child.ServiceKey)
	if err != nil {
		return "", 0, fmt.Errorf("resolve binding key of listener service %s: %w", child.ServiceKey, err)
	}
	return bindingKey, time.Duration(reg.MonitoringFrequency) * time.Millisecond, nil
}

// NotificationURL implements tasks.EndpointResolver.
func (r *endpointResolver) NotificationURL(ctx context.Context, _ store.Stores, _ *model.Registry) (string, error) {
	listener, err := r.listenerService(ctx)
	if err != nil {
		return "", err
	}
	return cluster.NotificationURL(ctx, r.resolver, listener.ID)
}

// listenerService returns the notification listener service, preferring the
// lowest id when several exist so all nodes pick the same one.
func (r *endpointResolver) listenerService(ctx context.Context) (*gateway.Service, error) {
	services, err := r.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gateway services: %w", err)
	}

	var listeners []*gateway.Service
	for _, svc := range services {
		if svc.WsdlSource == gateway.NotificationListenerWsdl {
			listeners = append(listeners, svc)
		}
	}
	if len(listeners) == 0 {
		return nil, fmt.Errorf("no notification listener service exists")
	}
	sort.Slice(listeners, func(i, j int) bool {
		return listeners[i].ID.String() < listeners[j].ID.String()
	})
	return listeners[0], nil
}

// publishedListener returns the listener service together with its
// published business service in the given registry.
func (r *endpointResolver) publishedListener(
	ctx context.Context, s store.Stores, reg *model.Registry,
) (*gateway.Service, *model.ProxiedService, error) {
	listener, err := r.listenerService(ctx)
	if err != nil {
		return nil, nil, err
	}

	infos, err := s.ProxiedInfos.Find(ctx, store.Condition{
		store.FieldRegistryID: reg.ID,
		store.FieldServiceID:  listener.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("look up listener publish records: %w", err)
	}
	for _, info := range infos {
		children, err := s.ProxiedServices.Find(ctx, store.Condition{
			store.FieldProxiedServiceInfoID: info.ID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("look up listener published services: %w", err)
		}
		if len(children) > 0 {
			return listener, children[0], nil
		}
	}
	return nil, nil, fmt.Errorf("notification listener is not published to registry %s", reg.Name)
}
