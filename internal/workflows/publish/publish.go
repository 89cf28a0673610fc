// Package publish implements publishing local services into a registry and
// the compensating rollback when local persistence fails after the remote
// publish succeeded. Registry calls are outside the task transaction and
// cannot be rolled back, hence the explicit two-stage compensation.
package publish

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/gateway"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
	"github.com/gatewaymesh/uddi-reconciler/internal/wsdl"
)

// Builder builds publish workflow tasks.
type Builder struct {
	clients   uddi.ClientFactory
	converter wsdl.Converter
	catalog   gateway.Catalog
	resolver  cluster.Resolver
}

// NewBuilder returns a Builder with its collaborators.
func NewBuilder(
	clients uddi.ClientFactory,
	converter wsdl.Converter,
	catalog gateway.Catalog,
	resolver cluster.Resolver,
) *Builder {
	return &Builder{
		clients:   clients,
		converter: converter,
		catalog:   catalog,
		resolver:  resolver,
	}
}

// Build implements tasks.Builder.
func (b *Builder) Build(ev events.Event) tasks.Task {
	e, ok := ev.(events.PublishEvent)
	if !ok {
		return nil
	}
	switch e.Kind {
	case events.PublishKindCreateProxy:
		return &publishTask{b: b, event: e}
	case events.PublishKindDeleteProxy:
		return &deleteTask{b: b, event: e}
	}
	return nil
}

type publishTask struct {
	b     *Builder
	event events.PublishEvent
}

func (t *publishTask) Execute(ctx context.Context, tc *tasks.Context) error {
	info := t.event.ServiceInfo
	status := t.event.Status
	if info == nil || status == nil {
		return tasks.NewError(tasks.ReasonInvariant, "publish event carries no proxied service info")
	}

	// The admin path moves the status to Publishing before raising the
	// event; anything else here is a bug in the caller, not a condition
	// to retry.
	if _, err := tc.Stores.ProxiedInfos.GetByID(ctx, info.ID); errors.Is(err, store.ErrNotFound) {
		return tasks.NewError(tasks.ReasonInvariant,
			"publish requested for unknown proxied service info %s", info.ID)
	} else if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load proxied service info %s", info.ID)
	}
	if status.State != model.PublishStatePublishing {
		return tasks.NewError(tasks.ReasonInvariant,
			"publish requested with status %s, want %s", status.State, model.PublishStatePublishing)
	}

	reg, err := tc.Stores.Registries.GetByID(ctx, info.RegistryID)
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", info.RegistryID)
	}
	svc, err := t.b.catalog.GetByID(ctx, info.ServiceID)
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load local service %s", info.ServiceID)
	}

	wsdlURL, err := cluster.WsdlURL(ctx, t.b.resolver, svc.ID)
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "resolve wsdl url for service %s", svc.ID)
	}
	endpointURL, err := cluster.EndpointURL(ctx, t.b.resolver, svc)
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "resolve endpoint url for service %s", svc.ID)
	}

	converted, err := t.b.converter.Convert(ctx, svc, wsdlURL, endpointURL, info.BusinessKey)
	if err != nil {
		recordState(ctx, tc, status, model.PublishStateCannotPublish)
		return tasks.WrapError(tasks.ReasonBadWsdl, err, "convert wsdl of service %s", svc.Name)
	}

	client := t.b.clients.ClientFor(reg)
	published, err := client.PublishServices(ctx, converted.Services, converted.TModels)
	if err != nil {
		recordState(ctx, tc, status, model.PublishStatePublishFailed)
		return tasks.ClassifyRemote(err, "publish services of %s to registry %s", svc.Name, reg.Name)
	}

	if err := t.persistResult(ctx, tc, info, status, svc, published); err != nil {
		t.compensate(ctx, tc, reg, info, published, err)
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"record published services of %s", svc.Name)
	}

	slog.Info("Published service to registry",
		"service", svc.Name,
		"registry", reg.Name,
		"business_services", len(published))
	return nil
}

func (t *publishTask) persistResult(
	ctx context.Context,
	tc *tasks.Context,
	info *model.ProxiedServiceInfo,
	status *model.PublishStatus,
	svc *gateway.Service,
	published []uddi.BusinessService,
) error {
	for _, bs := range published {
		child := &model.ProxiedService{
			ProxiedServiceInfoID: info.ID,
			ServiceKey:           bs.ServiceKey,
			ServiceName:          bs.Name,
			WsdlServiceName:      bs.WsdlServiceName,
		}
		if err := tc.Stores.ProxiedServices.Create(ctx, child); err != nil {
			return err
		}
	}

	if err := status.Advance(model.PublishStatePublished); err != nil {
		return err
	}
	if err := tc.Stores.PublishStatuses.Update(ctx, status); err != nil {
		return err
	}

	info.WsdlHash = wsdl.Hash(svc.Wsdl)
	return tc.Stores.ProxiedInfos.Update(ctx, info)
}

// compensate undoes as much of a half-finished publish as possible: remove
// the just-created registry services, then remove the local records. Both
// stages are best-effort; a failure on the remote stage can orphan registry
// data, which is recorded on the audit channel rather than escalated.
func (t *publishTask) compensate(
	ctx context.Context,
	tc *tasks.Context,
	reg *model.Registry,
	info *model.ProxiedServiceInfo,
	published []uddi.BusinessService,
	cause error,
) {
	keys := make([]string, 0, len(published))
	for _, bs := range published {
		keys = append(keys, bs.ServiceKey)
	}

	tc.Audit.Record(ctx, audit.Record{
		Event: audit.EventPublishRollback,
		Actor: audit.ActorSystem,
		Detail: map[string]any{
			"registry":     reg.Name,
			"service_keys": keys,
			"cause":        cause.Error(),
		},
	})

	client := t.b.clients.ClientFor(reg)
	if err := client.DeleteBusinessServices(ctx, keys); err != nil {
		tc.Audit.Record(ctx, audit.Record{
			Event: audit.EventCompensationFailed,
			Actor: audit.ActorSystem,
			Detail: map[string]any{
				"operation":    "delete_business_services",
				"registry":     reg.Name,
				"service_keys": keys,
				"error":        err.Error(),
			},
		})
	}

	// Local cleanup runs in its own transaction so it survives the
	// rollback of the failed task.
	err := tc.Tx.WithinTransaction(ctx, func(ctx context.Context, s store.Stores) error {
		return deleteLocalRecords(ctx, s, info.ID)
	})
	if err != nil {
		slog.Error("Failed to clean up local publish records",
			"proxied_service_info", info.ID,
			"error", err)
	}
}

// recordState persists a publish state change in its own transaction so it
// outlives the failing task's rollback.
func recordState(ctx context.Context, tc *tasks.Context, status *model.PublishStatus, next model.PublishState) {
	err := tc.Tx.WithinTransaction(ctx, func(ctx context.Context, s store.Stores) error {
		if err := status.Advance(next); err != nil {
			return err
		}
		return s.PublishStatuses.Update(ctx, status)
	})
	if err != nil {
		slog.Error("Failed to record publish state",
			"status", status.ID,
			"state", next,
			"error", err)
	}
}

// deleteLocalRecords removes a ProxiedServiceInfo with its children and
// status row.
func deleteLocalRecords(ctx context.Context, s store.Stores, infoID uuid.UUID) error {
	children, err := s.ProxiedServices.Find(ctx, store.Condition{store.FieldProxiedServiceInfoID: infoID})
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.ProxiedServices.Delete(ctx, child.ID); err != nil {
			return err
		}
	}
	statuses, err := s.PublishStatuses.Find(ctx, store.Condition{store.FieldProxiedServiceInfoID: infoID})
	if err != nil {
		return err
	}
	for _, st := range statuses {
		if err := s.PublishStatuses.Delete(ctx, st.ID); err != nil {
			return err
		}
	}
	if err := s.ProxiedInfos.Delete(ctx, infoID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
