// Package tasks defines the unit-of-work abstraction between the event
// model and the coordinator: builders turn events into tasks, tasks execute
// inside a transaction scoped to them.
package tasks

import (
	"context"
	"time"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

// EventRaiser lets a task raise follow-up events. Raised events are
// dispatched asynchronously after the raising task's transaction closes.
type EventRaiser interface {
	Raise(ev events.Event)
}

// EndpointResolver resolves the push-notification target for a registry:
// the binding key of the designated internal listener service and the URL
// the registry should deliver to.
type EndpointResolver interface {
	// BindingKey returns the listener binding key and the notification
	// interval for the registry, or an empty key when the registry is not
	// eligible for push notifications.
	BindingKey(ctx context.Context, s store.Stores, reg *model.Registry) (bindingKey string, interval time.Duration, err error)

	// NotificationURL returns the delivery URL for push notifications.
	NotificationURL(ctx context.Context, s store.Stores, reg *model.Registry) (string, error)
}

// Context is what a task executes against. Stores is bound to the task's
// own transaction. Tx opens fresh transactions and exists for compensating
// actions that must survive the task's rollback.
type Context struct {
	Stores    store.Stores
	Tx        store.TxRunner
	Events    EventRaiser
	Endpoints EndpointResolver
	Audit     audit.Sink
}

// Task is one executable unit of work.
type Task interface {
	Execute(ctx context.Context, tc *Context) error
}

// Builder turns an event into a task, or declines by returning nil. Build
// must be pure: side effects belong in the task's Execute.
type Builder interface {
	Build(ev events.Event) Task
}

// Func adapts a function to the Task interface.
type Func func(ctx context.Context, tc *Context) error

// Execute implements Task.
func (f Func) Execute(ctx context.Context, tc *Context) error {
	return f(ctx, tc)
}
