package reconcile_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/reconcile"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
)

func seedRegistry(t *testing.T, s store.Stores) *model.Registry {
	t.Helper()
	reg := &model.Registry{Name: "prod", Enabled: true}
	require.NoError(t, s.Registries.Create(context.Background(), reg))
	return reg
}

func statusByKey(t *testing.T, s store.Stores, registryID uuid.UUID, serviceKey string) *model.BusinessServiceStatus {
	t.Helper()
	rows, err := s.ServiceStatuses.Find(context.Background(), store.Condition{
		store.FieldRegistryID: registryID,
		store.FieldServiceKey: serviceKey,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestSweep_CreatesMissingRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()
	reg := seedRegistry(t, s)

	info := &model.ProxiedServiceInfo{
		RegistryID:     reg.ID,
		ServiceID:      uuid.New(),
		MetricsEnabled: true,
	}
	require.NoError(t, s.ProxiedInfos.Create(ctx, info))
	require.NoError(t, s.ProxiedServices.Create(ctx, &model.ProxiedService{
		ProxiedServiceInfoID: info.ID,
		ServiceKey:           "uddi:svc:published",
		ServiceName:          "Warehouse",
	}))
	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID:  reg.ID,
		ServiceID:   uuid.New(),
		ServiceKey:  "uddi:svc:controlled",
		ServiceName: "Orders",
	}))

	res, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Deleted)

	published := statusByKey(t, s, reg.ID, "uddi:svc:published")
	assert.Equal(t, "Warehouse", published.ServiceName)
	assert.Equal(t, model.ReferenceStatePublish, published.MetricsState)
	assert.Equal(t, model.ReferenceStateNone, published.PolicyState)

	controlled := statusByKey(t, s, reg.ID, "uddi:svc:controlled")
	assert.Equal(t, model.ReferenceStateNone, controlled.MetricsState)
}

func TestSweep_DeletesOrphanRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()
	reg := seedRegistry(t, s)

	require.NoError(t, s.ServiceStatuses.Create(ctx, &model.BusinessServiceStatus{
		RegistryID:   reg.ID,
		ServiceKey:   "uddi:svc:orphan",
		MetricsState: model.ReferenceStatePublished,
	}))

	res, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	rows, err := s.ServiceStatuses.Find(ctx, store.Condition{store.FieldRegistryID: reg.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSweep_DeletesRowsOfDeletedRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()

	// The registry itself is gone; its status rows are orphans too.
	require.NoError(t, s.ServiceStatuses.Create(ctx, &model.BusinessServiceStatus{
		RegistryID:   uuid.New(),
		ServiceKey:   "uddi:svc:stranded",
		MetricsState: model.ReferenceStatePublished,
	}))

	res, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	rows, err := s.ServiceStatuses.Find(ctx, store.Condition{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSweep_MergesMetricsAcrossSources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()
	reg := seedRegistry(t, s)

	// The proxy side has metrics off, the control side on; either wanting
	// metrics is enough.
	info := &model.ProxiedServiceInfo{RegistryID: reg.ID, ServiceID: uuid.New()}
	require.NoError(t, s.ProxiedInfos.Create(ctx, info))
	require.NoError(t, s.ProxiedServices.Create(ctx, &model.ProxiedService{
		ProxiedServiceInfoID: info.ID,
		ServiceKey:           "uddi:svc:shared",
		ServiceName:          "Warehouse",
	}))
	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID:     reg.ID,
		ServiceID:      uuid.New(),
		ServiceKey:     "uddi:svc:shared",
		ServiceName:    "Warehouse",
		MetricsEnabled: true,
	}))

	res, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	row := statusByKey(t, s, reg.ID, "uddi:svc:shared")
	assert.Equal(t, model.ReferenceStatePublish, row.MetricsState)
}

func TestSweep_MetricsDisableTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()
	reg := seedRegistry(t, s)

	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID:  reg.ID,
		ServiceID:   uuid.New(),
		ServiceKey:  "uddi:svc:a",
		ServiceName: "Warehouse",
	}))

	// A published reference with metrics now disabled moves to Delete.
	require.NoError(t, s.ServiceStatuses.Create(ctx, &model.BusinessServiceStatus{
		RegistryID:   reg.ID,
		ServiceKey:   "uddi:svc:a",
		ServiceName:  "Warehouse",
		MetricsState: model.ReferenceStatePublished,
	}))

	res, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, model.ReferenceStateDelete, statusByKey(t, s, reg.ID, "uddi:svc:a").MetricsState)
}

func TestSweep_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmemory.New().Stores()
	reg := seedRegistry(t, s)

	require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
		RegistryID:     reg.ID,
		ServiceID:      uuid.New(),
		ServiceKey:     "uddi:svc:a",
		ServiceName:    "Warehouse",
		MetricsEnabled: true,
	}))

	first, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := reconcile.Sweep(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.Deleted)
}
