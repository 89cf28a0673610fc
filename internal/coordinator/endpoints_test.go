package coordinator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/coordinator"
	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
	uddimocks "github.com/gatewaymesh/uddi-reconciler/internal/uddi/mocks"
)

type stubFactory struct {
	client uddi.Client
}

func (f stubFactory) ClientFor(*model.Registry) uddi.Client { return f.client }

func TestEndpointResolver_BindingKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	client := uddimocks.NewMockClient(ctrl)
	stores := inmemory.New().Stores()

	listener := &gateway.Service{
		ID:         uuid.New(),
		Name:       "UDDI Notification Listener",
		WsdlSource: gateway.NotificationListenerWsdl,
	}
	catalog := gateway.NewStaticCatalog(listener)

	reg := &model.Registry{Name: "prod", Enabled: true, MonitoringFrequency: 30_000}
	require.NoError(t, stores.Registries.Create(ctx, reg))

	info := &model.ProxiedServiceInfo{RegistryID: reg.ID, ServiceID: listener.ID}
	require.NoError(t, stores.ProxiedInfos.Create(ctx, info))
	require.NoError(t, stores.ProxiedServices.Create(ctx, &model.ProxiedService{
		ProxiedServiceInfoID: info.ID,
		ServiceKey:           "uddi:svc:listener",
	}))

	client.EXPECT().
		GetBindingKeyForService(gomock.Any(), "uddi:svc:listener").
		Return("uddi:binding:listener", nil)

	resolver := coordinator.NewEndpointResolver(catalog, stubFactory{client},
		cluster.StaticResolver{Host: "gw.example.com", Port: 8443})

	bindingKey, interval, err := resolver.BindingKey(ctx, stores, reg)
	require.NoError(t, err)
	assert.Equal(t, "uddi:binding:listener", bindingKey)
	assert.Equal(t, 30*time.Second, interval)
}

func TestEndpointResolver_BindingKeyListenerNotPublished(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	stores := inmemory.New().Stores()

	listener := &gateway.Service{ID: uuid.New(), WsdlSource: gateway.NotificationListenerWsdl}
	catalog := gateway.NewStaticCatalog(listener)

	reg := &model.Registry{Name: "prod", Enabled: true}
	require.NoError(t, stores.Registries.Create(ctx, reg))

	resolver := coordinator.NewEndpointResolver(catalog,
		stubFactory{uddimocks.NewMockClient(ctrl)},
		cluster.StaticResolver{Host: "gw.example.com"})

	_, _, err := resolver.BindingKey(ctx, stores, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not published")
}

func TestEndpointResolver_BindingKeyNoListenerService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	stores := inmemory.New().Stores()

	catalog := gateway.NewStaticCatalog(&gateway.Service{ID: uuid.New(), Name: "Warehouse"})

	resolver := coordinator.NewEndpointResolver(catalog,
		stubFactory{uddimocks.NewMockClient(ctrl)},
		cluster.StaticResolver{Host: "gw.example.com"})

	_, _, err := resolver.BindingKey(ctx, stores, &model.Registry{Name: "prod"})
	require.Error(t, err)
}

func TestEndpointResolver_NotificationURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	listener := &gateway.Service{ID: uuid.New(), WsdlSource: gateway.NotificationListenerWsdl}
	catalog := gateway.NewStaticCatalog(listener)

	resolver := coordinator.NewEndpointResolver(catalog,
		stubFactory{uddimocks.NewMockClient(ctrl)},
		cluster.StaticResolver{Host: "gw.example.com", Port: 8443})

	url, err := resolver.NotificationURL(ctx, inmemory.New().Stores(), &model.Registry{Name: "prod"})
	require.NoError(t, err)
	assert.Equal(t,
		fmt.Sprintf("https://gw.example.com:8443/uddi/notifications/%s", listener.ID),
		url)
}
