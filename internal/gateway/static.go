package gateway

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a service is not in the catalog.
var ErrNotFound = errors.New("gateway: service not found")

// StaticCatalog is a mutex-protected in-memory Catalog. The hosting gateway
// feeds it on service deployment and undeployment.
type StaticCatalog struct {
	mu       sync.RWMutex
	services map[uuid.UUID]*Service
}

// NewStaticCatalog returns a catalog seeded with the given services.
func NewStaticCatalog(services ...*Service) *StaticCatalog {
	c := &StaticCatalog{services: make(map[uuid.UUID]*Service, len(services))}
	for _, svc := range services {
		c.Put(svc)
	}
	return c
}

// Put adds or replaces a service.
func (c *StaticCatalog) Put(svc *Service) {
	cp := *svc
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[cp.ID] = &cp
}

// Remove drops a service. Removing an absent service is a no-op.
func (c *StaticCatalog) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.services, id)
}

func (c *StaticCatalog) GetByID(_ context.Context, id uuid.UUID) (*Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (c *StaticCatalog) List(_ context.Context) ([]*Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Service, 0, len(c.services))
	for _, svc := range c.services {
		cp := *svc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}
