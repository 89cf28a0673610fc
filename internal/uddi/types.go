// Package uddi defines the registry wire client boundary: the operations
// the reconciliation workflows need from a UDDI-style directory, the typed
// errors those operations can raise, and the payload decoding for inbound
// subscription notifications.
package uddi

import (
	"context"
	"time"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
)

// BusinessService is a registry-side record describing one published
// service endpoint.
type BusinessService struct {
	ServiceKey  string
	Name        string
	BusinessKey string

	// WsdlServiceName is the wsdl:service the record was generated from,
	// when the gateway published it.
	WsdlServiceName string
}

// TModel is a registry-side reusable metadata object. The workflows use
// tModels for policy documents and classification references.
type TModel struct {
	Key         string
	Name        string
	Description string
	OverviewURL string
}

// KeyedReference is one categorization entry attached to a business
// service or tModel.
type KeyedReference struct {
	TModelKey string
	KeyName   string
	KeyValue  string
}

// SubscriptionResult is one entry of a subscription poll or push
// notification: a business service that changed or disappeared.
type SubscriptionResult struct {
	ServiceKey string
	Deleted    bool
}

// Client issues wire calls against one registry. Implementations
// authenticate lazily and cache the security token for the registry's
// security endpoint. Remote calls block; the scheduler accounts for that.
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/gatewaymesh/uddi-reconciler/internal/uddi Client
type Client interface {
	// Authenticate obtains a security token. Workflows that fan out over
	// many services call it once up front so an auth failure aborts the
	// whole sweep instead of failing per service.
	Authenticate(ctx context.Context) error

	// Subscribe creates a subscription and returns the registry-assigned
	// key. A non-empty bindingKey requests push notifications delivered
	// to that binding at the given interval; an empty bindingKey selects
	// poll mode.
	Subscribe(ctx context.Context, expiry time.Time, interval time.Duration, bindingKey string) (string, error)

	// DeleteSubscription removes a subscription registry-side.
	DeleteSubscription(ctx context.Context, subscriptionKey string) error

	// PollSubscription returns the changes recorded for the subscription
	// in the given window.
	PollSubscription(ctx context.Context, from, to time.Time, subscriptionKey string) ([]SubscriptionResult, error)

	// PublishServices publishes business services and their tModels.
	// Publication is best-effort: the returned slice holds the services
	// actually created, which may be a subset on partial success.
	PublishServices(ctx context.Context, services []BusinessService, tModels []TModel) ([]BusinessService, error)

	// DeleteBusinessServices removes business services by key.
	DeleteBusinessServices(ctx context.Context, serviceKeys []string) error

	// PublishPolicy publishes a policy tModel, reusing existingKey when
	// non-empty. Raises ErrInvalidKey when existingKey no longer exists.
	PublishPolicy(ctx context.Context, existingKey, name, description, policyURL string) (string, error)

	// ReferencePolicy attaches a policy tModel (or remote policy URL) as
	// a keyed reference on a business service.
	ReferencePolicy(ctx context.Context, serviceKey, tModelKey, policyURL string) error

	// RemovePolicyReference detaches one policy reference from a business
	// service: the tModel-keyed reference for a local policy, or the
	// URL-valued reference for a remote one. Other policy references on
	// the service are left in place.
	RemovePolicyReference(ctx context.Context, serviceKey, tModelKey, policyURL string) error

	// DeleteTModel removes a tModel. Raises ErrInvalidKey when the key
	// is already gone.
	DeleteTModel(ctx context.Context, tModelKey string) error

	// GetBindingKeyForService resolves the binding key of a business
	// service's endpoint, used to target push notifications.
	GetBindingKeyForService(ctx context.Context, serviceKey string) (string, error)

	// GetBusinessServices fetches business services by key. Keys that no
	// longer exist are omitted from the result.
	GetBusinessServices(ctx context.Context, serviceKeys []string) ([]BusinessService, error)
}

// ClientFactory builds a client bound to one registry's endpoints and
// credentials.
type ClientFactory interface {
	ClientFor(reg *model.Registry) Client
}
