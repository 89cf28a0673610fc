package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/coordinator"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/store/inmemory"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
)

// fakeBuilder builds a recording task for every event offered to it.
type fakeBuilder struct {
	mu       sync.Mutex
	seen     []events.Event
	inFlight atomic.Int32
	execute  func(ev events.Event, tc *tasks.Context) error
}

func (b *fakeBuilder) Build(ev events.Event) tasks.Task {
	return tasks.Func(func(_ context.Context, tc *tasks.Context) error {
		if b.inFlight.Add(1) != 1 {
			panic("tasks executed concurrently")
		}
		defer b.inFlight.Add(-1)

		b.mu.Lock()
		b.seen = append(b.seen, ev)
		b.mu.Unlock()
		if b.execute != nil {
			return b.execute(ev, tc)
		}
		return nil
	})
}

func (b *fakeBuilder) events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.seen...)
}

type harness struct {
	db      *inmemory.DB
	stores  store.Stores
	builder *fakeBuilder
	audit   *audit.Recorder
	coord   coordinator.Coordinator
}

func newHarness(t *testing.T, seed func(s store.Stores)) *harness {
	t.Helper()
	h := &harness{
		db:      inmemory.New(),
		builder: &fakeBuilder{},
		audit:   audit.NewRecorder(),
	}
	h.stores = h.db.Stores()
	if seed != nil {
		seed(h.stores)
	}

	h.coord = coordinator.New(h.stores, h.db, nil, h.audit, []tasks.Builder{h.builder})

	started := make(chan struct{})
	go func() {
		close(started)
		_ = h.coord.Start(context.Background())
	}()
	<-started
	t.Cleanup(func() {
		require.NoError(t, h.coord.Stop())
	})

	return h
}

// barrier waits for everything queued ahead of it to finish.
func (h *harness) barrier(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.coord.HandleEvent(ctx, events.PollEvent{RegistryID: uuid.Nil}))
}

func TestValidInterval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ms   int64
		want bool
	}{
		{name: "below minimum", ms: coordinator.MinIntervalMillis - 1, want: false},
		{name: "minimum", ms: coordinator.MinIntervalMillis, want: true},
		{name: "maximum", ms: coordinator.MaxIntervalMillis, want: true},
		{name: "above maximum", ms: coordinator.MaxIntervalMillis + 1, want: false},
		{name: "zero", ms: 0, want: false},
		{name: "negative", ms: -5000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, coordinator.ValidInterval(tt.ms))
		})
	}
}

func TestStart_SubscribesAndSweeps(t *testing.T) {
	t.Parallel()
	var regID uuid.UUID
	h := newHarness(t, func(s store.Stores) {
		ctx := context.Background()
		reg := &model.Registry{Name: "prod", Enabled: true}
		require.NoError(t, s.Registries.Create(ctx, reg))
		regID = reg.ID
		require.NoError(t, s.ServiceControls.Create(ctx, &model.ServiceControl{
			RegistryID:  reg.ID,
			ServiceID:   uuid.New(),
			ServiceKey:  "uddi:svc:a",
			ServiceName: "Warehouse",
		}))
	})

	h.barrier(t)

	// The startup backlog subscribed the enabled registry before anything
	// queued later.
	seen := h.builder.events()
	require.NotEmpty(t, seen)
	sub, ok := seen[0].(events.SubscribeEvent)
	require.True(t, ok)
	assert.Equal(t, regID, sub.RegistryID)
	assert.Equal(t, events.SubscribeKindSubscribe, sub.Kind)

	// The initial sweep derived the status row.
	rows, err := h.stores.ServiceStatuses.Find(context.Background(),
		store.Condition{store.FieldRegistryID: regID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "uddi:svc:a", rows[0].ServiceKey)
}

func TestDispatch_RaisedEventsRunBeforeLaterArrivals(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	followUp := events.UpdateAllMonitoredServicesEvent{RegistryID: uuid.New()}
	h.builder.execute = func(ev events.Event, tc *tasks.Context) error {
		if _, ok := ev.(events.WsPolicyEvent); ok {
			tc.Events.Raise(followUp)
		}
		return nil
	}

	ctx := context.Background()
	require.NoError(t, h.coord.HandleEvent(ctx, events.WsPolicyEvent{RegistryID: uuid.New()}))
	h.barrier(t)

	seen := h.builder.events()
	require.Len(t, seen, 3)
	assert.IsType(t, events.WsPolicyEvent{}, seen[0])
	assert.Equal(t, followUp, seen[1])
	assert.IsType(t, events.PollEvent{}, seen[2])
}

func TestDispatch_FailedTaskDiscardsRaisedEvents(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	taskErr := errors.New("boom")
	h.builder.execute = func(ev events.Event, tc *tasks.Context) error {
		if _, ok := ev.(events.WsPolicyEvent); ok {
			tc.Events.Raise(events.UpdateAllMonitoredServicesEvent{RegistryID: uuid.New()})
			return taskErr
		}
		return nil
	}

	ctx := context.Background()
	err := h.coord.HandleEvent(ctx, events.WsPolicyEvent{RegistryID: uuid.New()})
	require.ErrorIs(t, err, taskErr)
	h.barrier(t)

	for _, ev := range h.builder.events() {
		_, isFollowUp := ev.(events.UpdateAllMonitoredServicesEvent)
		assert.False(t, isFollowUp)
	}

	failures := h.audit.ByEvent(audit.EventTaskFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "WsPolicyEvent", failures[0].Detail["event"])
}

func TestEntityChanged_SourceEntitySweeps(t *testing.T) {
	t.Parallel()
	var regID uuid.UUID
	h := newHarness(t, func(s store.Stores) {
		reg := &model.Registry{Name: "prod", Enabled: true}
		require.NoError(t, s.Registries.Create(context.Background(), reg))
		regID = reg.ID
	})
	h.barrier(t)

	ctx := context.Background()
	control := &model.ServiceControl{
		RegistryID:  regID,
		ServiceID:   uuid.New(),
		ServiceKey:  "uddi:svc:late",
		ServiceName: "Orders",
	}
	require.NoError(t, h.stores.ServiceControls.Create(ctx, control))

	h.coord.EntityChanged(coordinator.Change{Type: coordinator.EntityServiceControl, ID: control.ID})
	h.barrier(t)

	rows, err := h.stores.ServiceStatuses.Find(ctx, store.Condition{
		store.FieldRegistryID: regID,
		store.FieldServiceKey: "uddi:svc:late",
	})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEntityChanged_RegistryDeletedUnsubscribes(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.barrier(t)

	regID := uuid.New()
	h.coord.EntityChanged(coordinator.Change{
		Type:    coordinator.EntityRegistry,
		ID:      regID,
		Deleted: true,
	})
	h.barrier(t)

	var unsubscribed bool
	for _, ev := range h.builder.events() {
		sub, ok := ev.(events.SubscribeEvent)
		if ok && sub.RegistryID == regID && sub.Kind == events.SubscribeKindUnsubscribe {
			unsubscribed = true
		}
	}
	assert.True(t, unsubscribed)
}

func TestEntityChanged_RegistryDisabledUnsubscribes(t *testing.T) {
	t.Parallel()
	var reg *model.Registry
	h := newHarness(t, func(s store.Stores) {
		reg = &model.Registry{Name: "prod", Enabled: true}
		require.NoError(t, s.Registries.Create(context.Background(), reg))
	})
	h.barrier(t)

	reg.Enabled = false
	require.NoError(t, h.stores.Registries.Update(context.Background(), reg))
	h.coord.EntityChanged(coordinator.Change{Type: coordinator.EntityRegistry, ID: reg.ID})
	h.barrier(t)

	seen := h.builder.events()
	require.NotEmpty(t, seen)
	last, ok := seen[len(seen)-2].(events.SubscribeEvent)
	require.True(t, ok)
	assert.Equal(t, events.SubscribeKindUnsubscribe, last.Kind)
}

func TestStart_PolicySweepFiresPeriodically(t *testing.T) {
	t.Parallel()
	db := inmemory.New()
	stores := db.Stores()
	reg := &model.Registry{Name: "prod", Enabled: true}
	require.NoError(t, stores.Registries.Create(context.Background(), reg))

	builder := &fakeBuilder{}
	coord := coordinator.New(stores, db, nil, audit.NewRecorder(), []tasks.Builder{builder},
		coordinator.WithPolicySweepInterval(time.Second))

	started := make(chan struct{})
	go func() {
		close(started)
		_ = coord.Start(context.Background())
	}()
	<-started
	t.Cleanup(func() { require.NoError(t, coord.Stop()) })

	require.Eventually(t, func() bool {
		for _, ev := range builder.events() {
			if p, ok := ev.(events.WsPolicyEvent); ok && p.RegistryID == reg.ID {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStop_RejectsNewWork(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.barrier(t)

	require.NoError(t, h.coord.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := h.coord.HandleEvent(ctx, events.WsPolicyEvent{RegistryID: uuid.New()})
	require.Error(t, err)

	// Dropped silently rather than blocking.
	h.coord.NotifyEvent(events.WsPolicyEvent{RegistryID: uuid.New()})
}
