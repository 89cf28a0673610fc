// Package store defines the persistent entity store boundary. Every entity
// type gets CRUD plus simple equality-conjunction queries expressed as a
// Condition map; implementations live in store/inmemory and store/postgres.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("entity not found")

// Condition is an equality conjunction over named fields. Field names are
// the Field* constants below; unknown fields are an error, not a silent
// non-match.
type Condition map[string]any

// Queryable field names.
const (
	FieldRegistryID           = "registry_id"
	FieldServiceID            = "service_id"
	FieldServiceKey           = "service_key"
	FieldSubscriptionKey      = "subscription_key"
	FieldProxiedServiceInfoID = "proxied_service_info_id"
	FieldMetricsEnabled       = "metrics_enabled"
	FieldUnderUDDIControl     = "under_uddi_control"
)

// RegistryStore persists Registry entities.
type RegistryStore interface {
	Create(ctx context.Context, reg *model.Registry) error
	Update(ctx context.Context, reg *model.Registry) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Registry, error)
	List(ctx context.Context) ([]*model.Registry, error)
}

// ProxiedServiceInfoStore persists ProxiedServiceInfo entities.
type ProxiedServiceInfoStore interface {
	Create(ctx context.Context, info *model.ProxiedServiceInfo) error
	Update(ctx context.Context, info *model.ProxiedServiceInfo) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProxiedServiceInfo, error)
	Find(ctx context.Context, cond Condition) ([]*model.ProxiedServiceInfo, error)
}

// ProxiedServiceStore persists ProxiedService child records.
type ProxiedServiceStore interface {
	Create(ctx context.Context, svc *model.ProxiedService) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProxiedService, error)
	Find(ctx context.Context, cond Condition) ([]*model.ProxiedService, error)
}

// PublishStatusStore persists the publish state machine rows.
type PublishStatusStore interface {
	Create(ctx context.Context, st *model.PublishStatus) error
	Update(ctx context.Context, st *model.PublishStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PublishStatus, error)
	Find(ctx context.Context, cond Condition) ([]*model.PublishStatus, error)
}

// ServiceControlStore persists ServiceControl entities.
type ServiceControlStore interface {
	Create(ctx context.Context, sc *model.ServiceControl) error
	Update(ctx context.Context, sc *model.ServiceControl) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ServiceControl, error)
	Find(ctx context.Context, cond Condition) ([]*model.ServiceControl, error)
}

// SubscriptionStore persists RegistrySubscription rows.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *model.RegistrySubscription) error
	Update(ctx context.Context, sub *model.RegistrySubscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RegistrySubscription, error)
	Find(ctx context.Context, cond Condition) ([]*model.RegistrySubscription, error)
}

// ServiceStatusStore persists BusinessServiceStatus reconciliation rows.
type ServiceStatusStore interface {
	Create(ctx context.Context, st *model.BusinessServiceStatus) error
	Update(ctx context.Context, st *model.BusinessServiceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.BusinessServiceStatus, error)
	Find(ctx context.Context, cond Condition) ([]*model.BusinessServiceStatus, error)
}

// Stores groups the per-entity stores handed to a task. Inside a
// transaction all stores are bound to that transaction.
type Stores struct {
	Registries      RegistryStore
	ProxiedInfos    ProxiedServiceInfoStore
	ProxiedServices ProxiedServiceStore
	PublishStatuses PublishStatusStore
	ServiceControls ServiceControlStore
	Subscriptions   SubscriptionStore
	ServiceStatuses ServiceStatusStore
}

// TxRunner scopes a function to one transaction. All store writes inside fn
// are atomic; remote registry calls made inside fn are not covered and need
// explicit compensation on failure.
//
//go:generate mockgen -destination=mocks/mock_txrunner.go -package=mocks github.com/gatewaymesh/uddi-reconciler/internal/store TxRunner
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
