package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
	uddimocks "github.com/gatewaymesh/uddi-reconciler/internal/uddi/mocks"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/policy"
)

type stubFactory struct {
	client uddi.Client
}

func (f stubFactory) ClientFor(*model.Registry) uddi.Client { return f.client }

type fixture struct {
	stores  store.Stores
	client  *uddimocks.MockClient
	builder *policy.Builder
	audit   *audit.Recorder
	tc      *tasks.Context
	reg     *model.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	db := inmemory.New()
	f := &fixture{
		stores: db.Stores(),
		client: uddimocks.NewMockClient(ctrl),
		audit:  audit.NewRecorder(),
	}
	resolver := cluster.StaticResolver{Host: "gw.example.com", Port: 8443}
	f.builder = policy.NewBuilder(stubFactory{f.client}, resolver)
	f.tc = &tasks.Context{Stores: f.stores, Tx: db, Audit: f.audit}

	f.reg = &model.Registry{Name: "prod", Enabled: true}
	require.NoError(t, f.stores.Registries.Create(context.Background(), f.reg))
	return f
}

func (f *fixture) row(t *testing.T, mutate func(*model.BusinessServiceStatus)) *model.BusinessServiceStatus {
	t.Helper()
	row := &model.BusinessServiceStatus{
		RegistryID:  f.reg.ID,
		ServiceKey:  "uddi:svc:a",
		ServiceName: "Warehouse",
	}
	if mutate != nil {
		mutate(row)
	}
	require.NoError(t, f.stores.ServiceStatuses.Create(context.Background(), row))
	return row
}

func (f *fixture) sweep(t *testing.T) error {
	t.Helper()
	task := f.builder.Build(events.WsPolicyEvent{RegistryID: f.reg.ID})
	require.NotNil(t, task)
	return task.Execute(context.Background(), f.tc)
}

func (f *fixture) stored(t *testing.T, row *model.BusinessServiceStatus) *model.BusinessServiceStatus {
	t.Helper()
	got, err := f.stores.ServiceStatuses.GetByID(context.Background(), row.ID)
	require.NoError(t, err)
	return got
}

func TestSweep_AttachLocalPolicy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://gw.example.com:8443/policies/warehouse.xml"
	})

	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			PublishPolicy(gomock.Any(), "", "Warehouse Policy", "Policy for Warehouse", row.PolicyURL).
			Return("uddi:tmodel:p1", nil),
		f.client.EXPECT().
			ReferencePolicy(gomock.Any(), "uddi:svc:a", "uddi:tmodel:p1", row.PolicyURL).
			Return(nil),
	)

	require.NoError(t, f.sweep(t))

	got := f.stored(t, row)
	assert.Equal(t, model.ReferenceStatePublished, got.PolicyState)
	assert.Equal(t, "uddi:tmodel:p1", got.PolicyTModelKey)
}

func TestSweep_AttachUsesRegistryTypeTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.reg.RegistryType = "CentraSite"
	require.NoError(t, f.stores.Registries.Update(context.Background(), f.reg))
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://gw.example.com:8443/policies/warehouse.xml"
	})

	// The tModel's name and description follow the vendor's shape.
	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			PublishPolicy(gomock.Any(), "", "Warehouse_policy", "WS-Policy attachment for Warehouse", row.PolicyURL).
			Return("uddi:tmodel:p1", nil),
		f.client.EXPECT().
			ReferencePolicy(gomock.Any(), "uddi:svc:a", "uddi:tmodel:p1", row.PolicyURL).
			Return(nil),
	)

	require.NoError(t, f.sweep(t))
	assert.Equal(t, model.ReferenceStatePublished, f.stored(t, row).PolicyState)
}

func TestSweep_AttachRemotePolicyReferencesURLOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://policies.example.org/warehouse.xml"
	})

	// No tModel is published for a remote policy document.
	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			ReferencePolicy(gomock.Any(), "uddi:svc:a", "", row.PolicyURL).
			Return(nil),
	)

	require.NoError(t, f.sweep(t))

	got := f.stored(t, row)
	assert.Equal(t, model.ReferenceStatePublished, got.PolicyState)
	assert.Empty(t, got.PolicyTModelKey)
}

func TestSweep_AttachRetriesPurgedTModelKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://policies.example.org/warehouse.xml"
		r.PolicyTModelKey = "uddi:tmodel:stale"
	})

	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			PublishPolicy(gomock.Any(), "uddi:tmodel:stale", gomock.Any(), gomock.Any(), row.PolicyURL).
			Return("", uddi.ErrInvalidKey),
		f.client.EXPECT().
			PublishPolicy(gomock.Any(), "", gomock.Any(), gomock.Any(), row.PolicyURL).
			Return("uddi:tmodel:fresh", nil),
		f.client.EXPECT().
			ReferencePolicy(gomock.Any(), "uddi:svc:a", "uddi:tmodel:fresh", row.PolicyURL).
			Return(nil),
	)

	require.NoError(t, f.sweep(t))
	assert.Equal(t, "uddi:tmodel:fresh", f.stored(t, row).PolicyTModelKey)
}

func TestSweep_AttachWithoutURLClearsRow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
	})

	f.client.EXPECT().Authenticate(gomock.Any()).Return(nil)

	require.NoError(t, f.sweep(t))
	assert.Equal(t, model.ReferenceStateNone, f.stored(t, row).PolicyState)
}

func TestSweep_Detach(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStateDelete
		r.PolicyTModelKey = "uddi:tmodel:p1"
		r.PolicyURL = "https://gw.example.com:8443/policies/warehouse.xml"
	})

	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			RemovePolicyReference(gomock.Any(), "uddi:svc:a", "uddi:tmodel:p1", row.PolicyURL).
			Return(nil),
		f.client.EXPECT().DeleteTModel(gomock.Any(), "uddi:tmodel:p1").Return(nil),
	)

	require.NoError(t, f.sweep(t))

	got := f.stored(t, row)
	assert.Equal(t, model.ReferenceStateNone, got.PolicyState)
	assert.Empty(t, got.PolicyTModelKey)
	assert.Empty(t, got.PolicyURL)
}

func TestSweep_DetachRemoteReferenceSkipsTModelDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStateDelete
		r.PolicyURL = "https://policies.example.org/warehouse.xml"
	})

	// A remote reference owns no tModel; only the reference goes, matched
	// by its URL.
	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			RemovePolicyReference(gomock.Any(), "uddi:svc:a", "", row.PolicyURL).
			Return(nil),
	)

	require.NoError(t, f.sweep(t))

	got := f.stored(t, row)
	assert.Equal(t, model.ReferenceStateNone, got.PolicyState)
	assert.Empty(t, got.PolicyURL)
}

func TestSweep_DetachToleratesPurgedKeys(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	row := f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStateDelete
		r.PolicyTModelKey = "uddi:tmodel:gone"
	})

	gomock.InOrder(
		f.client.EXPECT().Authenticate(gomock.Any()).Return(nil),
		f.client.EXPECT().
			RemovePolicyReference(gomock.Any(), "uddi:svc:a", "uddi:tmodel:gone", gomock.Any()).
			Return(uddi.ErrInvalidKey),
		f.client.EXPECT().
			DeleteTModel(gomock.Any(), "uddi:tmodel:gone").
			Return(uddi.ErrInvalidKey),
	)

	require.NoError(t, f.sweep(t))
	assert.Equal(t, model.ReferenceStateNone, f.stored(t, row).PolicyState)
}

func TestSweep_ServiceFailureContinues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	failing := f.row(t, func(r *model.BusinessServiceStatus) {
		r.ServiceKey = "uddi:svc:failing"
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://policies.example.org/a.xml"
	})
	healthy := f.row(t, func(r *model.BusinessServiceStatus) {
		r.ServiceKey = "uddi:svc:healthy"
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://policies.example.org/b.xml"
	})

	f.client.EXPECT().Authenticate(gomock.Any()).Return(nil)
	f.client.EXPECT().
		ReferencePolicy(gomock.Any(), "uddi:svc:failing", "", failing.PolicyURL).
		Return(&uddi.TransientError{Op: "reference_policy", Err: errors.New("timeout")})
	f.client.EXPECT().
		ReferencePolicy(gomock.Any(), "uddi:svc:healthy", "", healthy.PolicyURL).
		Return(nil)

	require.NoError(t, f.sweep(t))

	assert.Equal(t, model.ReferenceStatePublish, f.stored(t, failing).PolicyState)
	assert.Equal(t, model.ReferenceStatePublished, f.stored(t, healthy).PolicyState)

	failures := f.audit.ByEvent(audit.EventPolicyServiceFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "uddi:svc:failing", failures[0].Detail["service_key"])
}

func TestSweep_AuthFailureAbortsWholeSweep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
		r.PolicyURL = "https://policies.example.org/a.xml"
	})

	f.client.EXPECT().Authenticate(gomock.Any()).Return(uddi.ErrAuthFailed)

	err := f.sweep(t)
	require.Error(t, err)
	assert.Equal(t, tasks.ReasonAuthFailed, tasks.ReasonOf(err))
}

func TestSweep_NothingPendingSkipsAuthentication(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublished
	})

	// No registry calls at all.
	require.NoError(t, f.sweep(t))
}

func TestSweep_DisabledRegistrySkipped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.reg.Enabled = false
	require.NoError(t, f.stores.Registries.Update(context.Background(), f.reg))
	f.row(t, func(r *model.BusinessServiceStatus) {
		r.PolicyState = model.ReferenceStatePublish
	})

	require.NoError(t, f.sweep(t))
}
