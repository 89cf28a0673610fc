package inmemory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

func TestRegistryStore_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New().Stores()

	reg := &model.Registry{Name: "prod", Enabled: true}
	require.NoError(t, s.Registries.Create(ctx, reg))
	require.NotEqual(t, uuid.Nil, reg.ID)

	got, err := s.Registries.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)

	// Reads are copies, not aliases.
	got.Name = "mutated"
	again, err := s.Registries.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod", again.Name)

	reg.Name = "prod-2"
	require.NoError(t, s.Registries.Update(ctx, reg))
	got, err = s.Registries.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod-2", got.Name)

	all, err := s.Registries.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Registries.Delete(ctx, reg.ID))
	_, err = s.Registries.GetByID(ctx, reg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate_Missing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New().Stores()

	err := s.Registries.Update(ctx, &model.Registry{ID: uuid.New()})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFind_Conditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New().Stores()

	regID := uuid.New()
	otherID := uuid.New()
	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID: regID, ServiceKey: "uddi:svc:a", UnderUDDIControl: true,
	}))
	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID: regID, ServiceKey: "uddi:svc:b",
	}))
	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID: otherID, ServiceKey: "uddi:svc:a", UnderUDDIControl: true,
	}))

	found, err := s.ServiceControls.Find(ctx, store.Condition{
		store.FieldRegistryID:       regID,
		store.FieldUnderUDDIControl: true,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "uddi:svc:a", found[0].ServiceKey)

	// Empty condition matches everything.
	all, err := s.ServiceControls.Find(ctx, store.Condition{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Unknown fields fail loudly instead of silently matching nothing.
	_, err = s.ServiceControls.Find(ctx, store.Condition{"no_such_field": 1})
	require.Error(t, err)
}

func TestWithinTransaction_PassThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := New()

	reg := &model.Registry{Name: "prod"}
	err := db.WithinTransaction(ctx, func(ctx context.Context, s store.Stores) error {
		return s.Registries.Create(ctx, reg)
	})
	require.NoError(t, err)

	_, err = db.Stores().Registries.GetByID(ctx, reg.ID)
	require.NoError(t, err)
}
