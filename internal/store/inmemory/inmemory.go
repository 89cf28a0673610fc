// Package inmemory provides a map-backed store implementation. It backs the
// test suite and the --ephemeral serve mode. Transactions are pass-through:
// writes apply immediately and are not rolled back on error, which is
// acceptable for its two uses and documented at the TxRunner.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

// DB is the in-memory database. The zero value is not usable; use New.
type DB struct {
	mu sync.RWMutex

	registries      *table[model.Registry]
	proxiedInfos    *table[model.ProxiedServiceInfo]
	proxiedServices *table[model.ProxiedService]
	publishStatuses *table[model.PublishStatus]
	serviceControls *table[model.ServiceControl]
	subscriptions   *table[model.RegistrySubscription]
	serviceStatuses *table[model.BusinessServiceStatus]
}

// New returns an empty in-memory database.
func New() *DB {
	d := &DB{}
	d.registries = newTable(&d.mu,
		func(r *model.Registry) *uuid.UUID { return &r.ID },
		func(*model.Registry, string) (any, bool) { return nil, false })
	d.proxiedInfos = newTable(&d.mu,
		func(i *model.ProxiedServiceInfo) *uuid.UUID { return &i.ID },
		func(i *model.ProxiedServiceInfo, field string) (any, bool) {
			switch field {
			case store.FieldRegistryID:
				return i.RegistryID, true
			case store.FieldServiceID:
				return i.ServiceID, true
			case store.FieldMetricsEnabled:
				return i.MetricsEnabled, true
			}
			return nil, false
		})
	d.proxiedServices = newTable(&d.mu,
		func(s *model.ProxiedService) *uuid.UUID { return &s.ID },
		func(s *model.ProxiedService, field string) (any, bool) {
			switch field {
			case store.FieldProxiedServiceInfoID:
				return s.ProxiedServiceInfoID, true
			case store.FieldServiceKey:
				return s.ServiceKey, true
			}
			return nil, false
		})
	d.publishStatuses = newTable(&d.mu,
		func(p *model.PublishStatus) *uuid.UUID { return &p.ID },
		func(p *model.PublishStatus, field string) (any, bool) {
			if field == store.FieldProxiedServiceInfoID {
				return p.ProxiedServiceInfoID, true
			}
			return nil, false
		})
	d.serviceControls = newTable(&d.mu,
		func(c *model.ServiceControl) *uuid.UUID { return &c.ID },
		func(c *model.ServiceControl, field string) (any, bool) {
			switch field {
			case store.FieldRegistryID:
				return c.RegistryID, true
			case store.FieldServiceID:
				return c.ServiceID, true
			case store.FieldServiceKey:
				return c.ServiceKey, true
			case store.FieldUnderUDDIControl:
				return c.UnderUDDIControl, true
			case store.FieldMetricsEnabled:
				return c.MetricsEnabled, true
			}
			return nil, false
		})
	d.subscriptions = newTable(&d.mu,
		func(s *model.RegistrySubscription) *uuid.UUID { return &s.ID },
		func(s *model.RegistrySubscription, field string) (any, bool) {
			switch field {
			case store.FieldRegistryID:
				return s.RegistryID, true
			case store.FieldSubscriptionKey:
				return s.SubscriptionKey, true
			}
			return nil, false
		})
	d.serviceStatuses = newTable(&d.mu,
		func(b *model.BusinessServiceStatus) *uuid.UUID { return &b.ID },
		func(b *model.BusinessServiceStatus, field string) (any, bool) {
			switch field {
			case store.FieldRegistryID:
				return b.RegistryID, true
			case store.FieldServiceKey:
				return b.ServiceKey, true
			}
			return nil, false
		})
	return d
}

// Stores returns the store set backed by this database.
func (d *DB) Stores() store.Stores {
	return store.Stores{
		Registries:      registryStore{d.registries},
		ProxiedInfos:    proxiedInfoStore{d.proxiedInfos},
		ProxiedServices: proxiedServiceStore{d.proxiedServices},
		PublishStatuses: publishStatusStore{d.publishStatuses},
		ServiceControls: serviceControlStore{d.serviceControls},
		Subscriptions:   subscriptionStore{d.subscriptions},
		ServiceStatuses: serviceStatusStore{d.serviceStatuses},
	}
}

// WithinTransaction implements store.TxRunner. Writes are applied
// immediately; a returned error does not undo them.
func (d *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return fn(ctx, d.Stores())
}

// table is a locked map of one entity type. fieldFn exposes the queryable
// fields of the entity; unknown fields make Find fail loudly.
type table[T any] struct {
	mu      *sync.RWMutex
	items   map[uuid.UUID]T
	idFn    func(*T) *uuid.UUID
	fieldFn func(*T, string) (any, bool)
}

func newTable[T any](mu *sync.RWMutex, idFn func(*T) *uuid.UUID, fieldFn func(*T, string) (any, bool)) *table[T] {
	return &table[T]{
		mu:      mu,
		items:   make(map[uuid.UUID]T),
		idFn:    idFn,
		fieldFn: fieldFn,
	}
}

func (t *table[T]) create(v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.idFn(v)
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if _, exists := t.items[*id]; exists {
		return fmt.Errorf("entity %s already exists", *id)
	}
	t.items[*id] = *v
	return nil
}

func (t *table[T]) update(v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := *t.idFn(v)
	if _, exists := t.items[id]; !exists {
		return store.ErrNotFound
	}
	t.items[id] = *v
	return nil
}

func (t *table[T]) remove(id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, id)
	return nil
}

func (t *table[T]) get(id uuid.UUID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (t *table[T]) find(cond store.Condition) ([]*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*T
	for _, v := range t.items {
		v := v
		matched, err := t.matches(&v, cond)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, &v)
		}
	}
	return out, nil
}

func (t *table[T]) list() []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*T, 0, len(t.items))
	for _, v := range t.items {
		v := v
		out = append(out, &v)
	}
	return out
}

func (t *table[T]) matches(v *T, cond store.Condition) (bool, error) {
	for field, want := range cond {
		got, ok := t.fieldFn(v, field)
		if !ok {
			return false, fmt.Errorf("unsupported query field %q for %T", field, *v)
		}
		if got != want {
			return false, nil
		}
	}
	return true, nil
}

type registryStore struct{ t *table[model.Registry] }

func (s registryStore) Create(_ context.Context, reg *model.Registry) error { return s.t.create(reg) }
func (s registryStore) Update(_ context.Context, reg *model.Registry) error { return s.t.update(reg) }
func (s registryStore) Delete(_ context.Context, id uuid.UUID) error        { return s.t.remove(id) }
func (s registryStore) GetByID(_ context.Context, id uuid.UUID) (*model.Registry, error) {
	return s.t.get(id)
}
func (s registryStore) List(_ context.Context) ([]*model.Registry, error) {
	return s.t.list(), nil
}

type proxiedInfoStore struct{ t *table[model.ProxiedServiceInfo] }

func (s proxiedInfoStore) Create(_ context.Context, v *model.ProxiedServiceInfo) error {
	return s.t.create(v)
}
func (s proxiedInfoStore) Update(_ context.Context, v *model.ProxiedServiceInfo) error {
	return s.t.update(v)
}
func (s proxiedInfoStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s proxiedInfoStore) GetByID(_ context.Context, id uuid.UUID) (*model.ProxiedServiceInfo, error) {
	return s.t.get(id)
}
func (s proxiedInfoStore) Find(_ context.Context, cond store.Condition) ([]*model.ProxiedServiceInfo, error) {
	return s.t.find(cond)
}

type proxiedServiceStore struct{ t *table[model.ProxiedService] }

func (s proxiedServiceStore) Create(_ context.Context, v *model.ProxiedService) error {
	return s.t.create(v)
}
func (s proxiedServiceStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s proxiedServiceStore) GetByID(_ context.Context, id uuid.UUID) (*model.ProxiedService, error) {
	return s.t.get(id)
}
func (s proxiedServiceStore) Find(_ context.Context, cond store.Condition) ([]*model.ProxiedService, error) {
	return s.t.find(cond)
}

type publishStatusStore struct{ t *table[model.PublishStatus] }

func (s publishStatusStore) Create(_ context.Context, v *model.PublishStatus) error {
	return s.t.create(v)
}
func (s publishStatusStore) Update(_ context.Context, v *model.PublishStatus) error {
	return s.t.update(v)
}
func (s publishStatusStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s publishStatusStore) GetByID(_ context.Context, id uuid.UUID) (*model.PublishStatus, error) {
	return s.t.get(id)
}
func (s publishStatusStore) Find(_ context.Context, cond store.Condition) ([]*model.PublishStatus, error) {
	return s.t.find(cond)
}

type serviceControlStore struct{ t *table[model.ServiceControl] }

func (s serviceControlStore) Create(_ context.Context, v *model.ServiceControl) error {
	return s.t.create(v)
}
func (s serviceControlStore) Update(_ context.Context, v *model.ServiceControl) error {
	return s.t.update(v)
}
func (s serviceControlStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s serviceControlStore) GetByID(_ context.Context, id uuid.UUID) (*model.ServiceControl, error) {
	return s.t.get(id)
}
func (s serviceControlStore) Find(_ context.Context, cond store.Condition) ([]*model.ServiceControl, error) {
	return s.t.find(cond)
}

type subscriptionStore struct{ t *table[model.RegistrySubscription] }

func (s subscriptionStore) Create(_ context.Context, v *model.RegistrySubscription) error {
	return s.t.create(v)
}
func (s subscriptionStore) Update(_ context.Context, v *model.RegistrySubscription) error {
	return s.t.update(v)
}
func (s subscriptionStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s subscriptionStore) GetByID(_ context.Context, id uuid.UUID) (*model.RegistrySubscription, error) {
	return s.t.get(id)
}
func (s subscriptionStore) Find(_ context.Context, cond store.Condition) ([]*model.RegistrySubscription, error) {
	return s.t.find(cond)
}

type serviceStatusStore struct{ t *table[model.BusinessServiceStatus] }

func (s serviceStatusStore) Create(_ context.Context, v *model.BusinessServiceStatus) error {
	return s.t.create(v)
}
func (s serviceStatusStore) Update(_ context.Context, v *model.BusinessServiceStatus) error {
	return s.t.update(v)
}
func (s serviceStatusStore) Delete(_ context.Context, id uuid.UUID) error { return s.t.remove(id) }
func (s serviceStatusStore) GetByID(_ context.Context, id uuid.UUID) (*model.BusinessServiceStatus, error) {
	return s.t.get(id)
}
func (s serviceStatusStore) Find(_ context.Context, cond store.Condition) ([]*model.BusinessServiceStatus, error) {
	return s.t.find(cond)
}
