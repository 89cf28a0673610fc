package monitor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
	uddimocks "github.com/gatewaymesh/uddi-reconciler/internal/uddi/mocks"
	"github.com/gatewaymesh/uddi-reconciler/internal/workflows/monitor"
)

type stubFactory struct {
	client uddi.Client
}

func (f stubFactory) ClientFor(*model.Registry) uddi.Client { return f.client }

type eventRecorder struct {
	raised []events.Event
}

func (r *eventRecorder) Raise(ev events.Event) { r.raised = append(r.raised, ev) }

type fixture struct {
	stores  store.Stores
	client  *uddimocks.MockClient
	builder *monitor.Builder
	events  *eventRecorder
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
		events: &eventRecorder{},
		audit:  audit.NewRecorder(),
	}
	f.builder = monitor.NewBuilder(stubFactory{f.client})
	f.tc = &tasks.Context{Stores: f.stores, Tx: db, Events: f.events, Audit: f.audit}

	f.reg = &model.Registry{Name: "prod", Enabled: true, MonitoringEnabled: true}
	require.NoError(t, f.stores.Registries.Create(context.Background(), f.reg))
	return f
}

func (f *fixture) control(t *testing.T, mutate func(*model.ServiceControl)) *model.ServiceControl {
	t.Helper()
	control := &model.ServiceControl{
		RegistryID:       f.reg.ID,
		ServiceID:        uuid.New(),
		ServiceKey:       "uddi:svc:a",
		ServiceName:      "Warehouse",
		BusinessKey:      "uddi:biz:1",
		UnderUDDIControl: true,
	}
	if mutate != nil {
		mutate(control)
	}
	require.NoError(t, f.stores.ServiceControls.Create(context.Background(), control))
	return control
}

func (f *fixture) run(t *testing.T, ev events.Event) error {
	t.Helper()
	task := f.builder.Build(ev)
	require.NotNil(t, task)
	return task.Execute(context.Background(), f.tc)
}

func (f *fixture) stored(t *testing.T, id uuid.UUID) *model.ServiceControl {
	t.Helper()
	control, err := f.stores.ServiceControls.GetByID(context.Background(), id)
	require.NoError(t, err)
	return control
}

func TestUpdate_DeletedFlagsControl(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	control := f.control(t, nil)

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
		Deleted:    true,
	}))

	got := f.stored(t, control.ID)
	assert.True(t, got.HasHadEndpointRemoved)
	assert.Equal(t, "Warehouse", got.ServiceName)

	removed := f.audit.ByEvent(audit.EventEndpointRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, "uddi:svc:a", removed[0].Detail["service_key"])
}

func TestUpdate_DeletedAlreadyFlaggedIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.control(t, func(c *model.ServiceControl) { c.HasHadEndpointRemoved = true })

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
		Deleted:    true,
	}))

	assert.Empty(t, f.audit.ByEvent(audit.EventEndpointRemoved))
}

func TestUpdate_RefreshFoldsNames(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	control := f.control(t, nil)

	f.client.EXPECT().
		GetBusinessServices(gomock.Any(), []string{"uddi:svc:a"}).
		Return([]uddi.BusinessService{
			{ServiceKey: "uddi:svc:a", Name: "Warehouse v2", BusinessKey: "uddi:biz:2"},
		}, nil)

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
	}))

	got := f.stored(t, control.ID)
	assert.Equal(t, "Warehouse v2", got.ServiceName)
	assert.Equal(t, "uddi:biz:2", got.BusinessKey)
}

func TestUpdate_RefreshUnchangedSkipsWrite(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	control := f.control(t, nil)

	f.client.EXPECT().
		GetBusinessServices(gomock.Any(), []string{"uddi:svc:a"}).
		Return([]uddi.BusinessService{
			{ServiceKey: "uddi:svc:a", Name: "Warehouse", BusinessKey: "uddi:biz:1"},
		}, nil)

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
	}))

	got := f.stored(t, control.ID)
	assert.Equal(t, "Warehouse", got.ServiceName)
}

func TestUpdate_RefreshEmptyFetchCountsAsDeleted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	control := f.control(t, nil)

	f.client.EXPECT().
		GetBusinessServices(gomock.Any(), []string{"uddi:svc:a"}).
		Return(nil, nil)

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
	}))

	assert.True(t, f.stored(t, control.ID).HasHadEndpointRemoved)
	assert.Len(t, f.audit.ByEvent(audit.EventEndpointRemoved), 1)
}

func TestUpdate_RefreshRemoteFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.control(t, nil)

	f.client.EXPECT().
		GetBusinessServices(gomock.Any(), gomock.Any()).
		Return(nil, &uddi.TransientError{Op: "get_service_detail", Err: errors.New("timeout")})

	err := f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:a",
	})
	require.Error(t, err)
	assert.Equal(t, tasks.ReasonRemoteTransient, tasks.ReasonOf(err))
}

func TestUpdate_UntrackedServiceIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.run(t, events.BusinessServiceUpdateEvent{
		RegistryID: f.reg.ID,
		ServiceKey: "uddi:svc:unknown",
	}))
}

func TestFanout_RaisesForcedUpdatesDeduplicated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Two controls share a service key; one is not under control.
	f.control(t, func(c *model.ServiceControl) { c.ServiceKey = "uddi:svc:a" })
	f.control(t, func(c *model.ServiceControl) { c.ServiceKey = "uddi:svc:a" })
	f.control(t, func(c *model.ServiceControl) { c.ServiceKey = "uddi:svc:b" })
	f.control(t, func(c *model.ServiceControl) {
		c.ServiceKey = "uddi:svc:ignored"
		c.UnderUDDIControl = false
	})

	require.NoError(t, f.run(t, events.UpdateAllMonitoredServicesEvent{RegistryID: f.reg.ID}))

	keys := make([]string, 0, len(f.events.raised))
	for _, raised := range f.events.raised {
		update, ok := raised.(events.BusinessServiceUpdateEvent)
		require.True(t, ok)
		assert.True(t, update.ForceUpdate)
		keys = append(keys, update.ServiceKey)
	}
	assert.ElementsMatch(t, []string{"uddi:svc:a", "uddi:svc:b"}, keys)
}
