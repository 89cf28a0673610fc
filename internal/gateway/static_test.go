package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := &Service{ID: uuid.New(), Name: "Warehouse"}
	b := &Service{ID: uuid.New(), Name: "Orders"}
	catalog := NewStaticCatalog(a, b)

	got, err := catalog.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse", got.Name)

	// Reads are copies, not aliases.
	got.Name = "mutated"
	again, err := catalog.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse", again.Name)

	all, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.LessOrEqual(t, all[0].ID.String(), all[1].ID.String())

	catalog.Remove(b.ID)
	_, err = catalog.GetByID(ctx, b.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = catalog.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStaticCatalog_PutReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := &Service{ID: uuid.New(), Name: "Warehouse"}
	catalog := NewStaticCatalog(svc)

	svc.Name = "Warehouse v2"
	catalog.Put(svc)

	got, err := catalog.GetByID(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse v2", got.Name)
}
