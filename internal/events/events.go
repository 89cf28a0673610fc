// Package events defines the closed set of things that can happen in the
// reconciliation layer. Each variant is an immutable value; the coordinator
// offers every event to all registered task builders.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
)

// Event is the sealed variant set. All variants carry a MasterOnly flag
// signaling the event should execute only on the cluster's elected primary
// node. Dispatch does not currently gate on it; the flag is preserved for
// deployments that add primary election (see DESIGN.md).
type Event interface {
	MasterOnly() bool

	// isEvent restricts implementations to this package.
	isEvent()
}

// TimerKind selects which periodic activity a TimerEvent fires.
type TimerKind string

const (
	// TimerSubscriptionPoll drives the poll-mode subscription check.
	TimerSubscriptionPoll TimerKind = "SubscriptionPoll"

	// TimerMetricsPublish drives the metrics reference computation.
	TimerMetricsPublish TimerKind = "MetricsPublish"

	// TimerMetricsCleanup drives removal of metrics references whose
	// status row has moved to Delete.
	TimerMetricsCleanup TimerKind = "MetricsCleanup"
)

// TimerEvent fires a periodic per-registry activity.
type TimerEvent struct {
	RegistryID uuid.UUID
	Kind       TimerKind
}

func (TimerEvent) MasterOnly() bool { return true }
func (TimerEvent) isEvent()         {}

// SubscribeKind selects the subscription lifecycle operation.
type SubscribeKind string

const (
	// SubscribeKindSubscribe creates or renews the registry subscription.
	SubscribeKindSubscribe SubscribeKind = "Subscribe"

	// SubscribeKindUnsubscribe tears the registry subscription down.
	SubscribeKindUnsubscribe SubscribeKind = "Unsubscribe"
)

// SubscribeEvent requests a subscription lifecycle change for a registry.
type SubscribeEvent struct {
	RegistryID uuid.UUID
	Kind       SubscribeKind
}

func (SubscribeEvent) MasterOnly() bool { return true }
func (SubscribeEvent) isEvent()         {}

// PollEvent requests an explicit-range subscription poll, independent of
// the periodic timer.
type PollEvent struct {
	RegistryID uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
}

func (PollEvent) MasterOnly() bool { return true }
func (PollEvent) isEvent()         {}

// NotificationEvent carries an inbound push-notification payload as
// delivered to the HTTP listener. The payload is decoded by the
// notification task, not at the transport edge.
type NotificationEvent struct {
	ServiceID  uuid.UUID
	Payload    []byte
	RemoteAddr string
}

func (NotificationEvent) MasterOnly() bool { return true }
func (NotificationEvent) isEvent()         {}

// PublishKind selects the publish workflow operation.
type PublishKind string

const (
	// PublishKindCreateProxy publishes the local service's WSDL into the
	// registry as new business service(s).
	PublishKindCreateProxy PublishKind = "CreateProxy"

	// PublishKindDeleteProxy removes previously published business
	// services from the registry.
	PublishKindDeleteProxy PublishKind = "DeleteProxy"
)

// PublishEvent triggers the publish workflow for one proxied service.
type PublishEvent struct {
	ServiceInfo *model.ProxiedServiceInfo
	Status      *model.PublishStatus
	Control     *model.ServiceControl
	Kind        PublishKind
}

func (PublishEvent) MasterOnly() bool { return true }
func (PublishEvent) isEvent()         {}

// WsPolicyEvent triggers the policy-attachment sweep for a registry.
type WsPolicyEvent struct {
	RegistryID uuid.UUID
}

func (WsPolicyEvent) MasterOnly() bool { return true }
func (WsPolicyEvent) isEvent()         {}

// BusinessServiceUpdateEvent reports an out-of-band change to a
// registry-owned business service. Unlike every other variant it is
// processed on every node, not only the primary; the asymmetry is
// deliberate and inherited from the system this replaces.
type BusinessServiceUpdateEvent struct {
	RegistryID  uuid.UUID
	ServiceKey  string
	Deleted     bool
	ForceUpdate bool
}

func (BusinessServiceUpdateEvent) MasterOnly() bool { return false }
func (BusinessServiceUpdateEvent) isEvent()         {}

// UpdateAllMonitoredServicesEvent forces a refresh of every monitored
// service of a registry; the escape hatch for a full resync after
// persistent drift.
type UpdateAllMonitoredServicesEvent struct {
	RegistryID uuid.UUID
}

func (UpdateAllMonitoredServicesEvent) MasterOnly() bool { return true }
func (UpdateAllMonitoredServicesEvent) isEvent()         {}
