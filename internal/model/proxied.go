package model

import (
	"fmt"

	"github.com/google/uuid"
)

// PublishType distinguishes what was published for a local service.
type PublishType string

const (
	// PublishTypeEndpoint means only a bindingTemplate endpoint was
	// attached to an existing registry business service.
	PublishTypeEndpoint PublishType = "ENDPOINT"

	// PublishTypeProxy means the gateway published full business
	// service(s) fronting the local service.
	PublishTypeProxy PublishType = "PROXY"
)

// ProxiedServiceInfo records that a local service has been, or is being,
// published into a registry. It owns zero or more ProxiedService children,
// one per business service actually created registry-side.
type ProxiedServiceInfo struct {
	ID         uuid.UUID
	RegistryID uuid.UUID

	// ServiceID identifies the local gateway service that was published.
	ServiceID uuid.UUID

	PublishType  PublishType
	BusinessKey  string
	BusinessName string

	// WsdlHash is a content hash of the WSDL at publish time, used to
	// detect local changes that require republishing.
	WsdlHash string

	MetricsEnabled      bool
	UpdateOnLocalChange bool
}

// ProxiedService is one UDDI business service created for a
// ProxiedServiceInfo.
type ProxiedService struct {
	ID                   uuid.UUID
	ProxiedServiceInfoID uuid.UUID

	// ServiceKey is assigned by the registry on publish.
	ServiceKey  string
	ServiceName string

	// WsdlServiceName is the wsdl:service name this business service was
	// generated from.
	WsdlServiceName string
}

// PublishState is the state machine driven by the publish workflow.
type PublishState string

const (
	// PublishStateNone is the initial state before any publish request.
	PublishStateNone PublishState = "NONE"

	// PublishStatePublish means a publish has been requested.
	PublishStatePublish PublishState = "PUBLISH"

	// PublishStatePublishing means the publish task is in flight.
	PublishStatePublishing PublishState = "PUBLISHING"

	// PublishStatePublished means registry-side data exists and local
	// records are consistent with it.
	PublishStatePublished PublishState = "PUBLISHED"

	// PublishStateDelete means deletion of registry-side data has been
	// requested.
	PublishStateDelete PublishState = "DELETE"

	// PublishStateDeleted means registry-side data was removed.
	PublishStateDeleted PublishState = "DELETED"

	// PublishStateDeleteFailed means the remote delete did not succeed;
	// forced local cleanup is permitted from here.
	PublishStateDeleteFailed PublishState = "DELETE_FAILED"

	// PublishStateCannotPublish is a terminal error state permitting
	// forced local cleanup.
	PublishStateCannotPublish PublishState = "CANNOT_PUBLISH"

	// PublishStateCannotDelete is a terminal error state permitting
	// forced local cleanup.
	PublishStateCannotDelete PublishState = "CANNOT_DELETE"

	// PublishStatePublishFailed means the publish attempt failed.
	PublishStatePublishFailed PublishState = "PUBLISH_FAILED"
)

// publishTransitions is the set of legal forward moves. No task may set a
// state that is not reachable from the state it read.
var publishTransitions = map[PublishState][]PublishState{
	PublishStateNone:          {PublishStatePublish},
	PublishStatePublish:       {PublishStatePublishing, PublishStateCannotPublish},
	PublishStatePublishing:    {PublishStatePublished, PublishStatePublishFailed, PublishStateCannotPublish},
	PublishStatePublished:     {PublishStateDelete, PublishStatePublish},
	PublishStatePublishFailed: {PublishStatePublish, PublishStateDelete},
	PublishStateDelete:        {PublishStateDeleted, PublishStateDeleteFailed, PublishStateCannotDelete},
	PublishStateDeleteFailed:  {PublishStateDelete, PublishStateDeleted},
}

// CanTransition reports whether moving from s to next is a legal state
// machine transition.
func (s PublishState) CanTransition(next PublishState) bool {
	for _, allowed := range publishTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PublishStatus is the 1:1 companion of a ProxiedServiceInfo carrying the
// publish state machine.
type PublishStatus struct {
	ID                   uuid.UUID
	ProxiedServiceInfoID uuid.UUID
	State                PublishState
}

// Advance moves the status to next, returning an error on an illegal
// transition. Illegal transitions indicate a programming error in the
// publish workflow, not a retryable condition.
func (p *PublishStatus) Advance(next PublishState) error {
	if !p.State.CanTransition(next) {
		return fmt.Errorf("illegal publish state transition %s -> %s", p.State, next)
	}
	p.State = next
	return nil
}
