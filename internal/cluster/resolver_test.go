package cluster

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
)

func TestStaticResolver(t *testing.T) {
	t.Parallel()

	host, port, err := StaticResolver{Host: "gw.example.com", Port: 8443}.ExternalAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gw.example.com", host)
	assert.Equal(t, 8443, port)

	_, port, err = StaticResolver{Host: "gw.example.com"}.ExternalAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 443, port)

	_, _, err = StaticResolver{}.ExternalAddress(context.Background())
	require.Error(t, err)
}

func TestURLs(t *testing.T) {
	t.Parallel()

	r := StaticResolver{Host: "gw.example.com", Port: 8443}
	serviceID := uuid.New()

	wsdlURL, err := WsdlURL(context.Background(), r, serviceID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://gw.example.com:8443/ssg/wsdl?serviceoid=%s", serviceID), wsdlURL)

	notifyURL, err := NotificationURL(context.Background(), r, serviceID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://gw.example.com:8443/uddi/notifications/%s", serviceID), notifyURL)
}

func TestEndpointURL(t *testing.T) {
	t.Parallel()

	r := StaticResolver{Host: "gw.example.com", Port: 8443}

	svc := &gateway.Service{ID: uuid.New(), RoutingURI: "/warehouse"}
	url, err := EndpointURL(context.Background(), r, svc)
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.com:8443/warehouse", url)

	// No routing URI falls back to the service id path.
	bare := &gateway.Service{ID: uuid.New()}
	url, err = EndpointURL(context.Background(), r, bare)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://gw.example.com:8443/service/%s", bare.ID), url)
}
