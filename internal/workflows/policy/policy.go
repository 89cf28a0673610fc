// Package policy implements the per-registry policy-attachment sweep. Each
// BusinessServiceStatus row carries a desired policy state; the sweep walks
// every row of the registry and converges the registry-side keyed
// references toward it. One service failing does not stop the sweep; an
// authentication failure does, since every remaining call would fail the
// same way.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/audit"
	"github.com/gatewaymesh/uddi-reconciler/internal/cluster"
	"github.com/gatewaymesh/uddi-reconciler/internal/events"
	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
	"github.com/gatewaymesh/uddi-reconciler/internal/tasks"
	"github.com/gatewaymesh/uddi-reconciler/internal/uddi"
)

// Builder builds policy sweep tasks.
type Builder struct {
	clients  uddi.ClientFactory
	resolver cluster.Resolver
}

// NewBuilder returns a Builder with its collaborators.
func NewBuilder(clients uddi.ClientFactory, resolver cluster.Resolver) *Builder {
	return &Builder{clients: clients, resolver: resolver}
}

// Build implements tasks.Builder.
func (b *Builder) Build(ev events.Event) tasks.Task {
	e, ok := ev.(events.WsPolicyEvent)
	if !ok {
		return nil
	}
	return &sweepTask{b: b, registryID: e.RegistryID}
}

type sweepTask struct {
	b          *Builder
	registryID uuid.UUID
}

// tModelTemplate renders the name and description of a policy tModel the
// way the registry vendor expects them. The verb is fmt.Sprintf with the
// service name as the single argument.
type tModelTemplate struct {
	name        string
	description string
}

// tModelTemplates maps the registry-type tag to the vendor's naming shape.
// Unknown and empty tags use the generic shape.
var tModelTemplates = map[string]tModelTemplate{
	"CentraSite": {name: "%s_policy", description: "WS-Policy attachment for %s"},
	"Systinet":   {name: "%s Policy", description: "Associated WS-Policy for %s"},
}

var genericTemplate = tModelTemplate{name: "%s Policy", description: "Policy for %s"}

func templateFor(registryType string) tModelTemplate {
	if tpl, ok := tModelTemplates[registryType]; ok {
		return tpl
	}
	return genericTemplate
}

func (t *sweepTask) Execute(ctx context.Context, tc *tasks.Context) error {
	reg, err := tc.Stores.Registries.GetByID(ctx, t.registryID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("Skipping policy sweep, registry no longer exists", "registry_id", t.registryID)
		return nil
	}
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err, "load registry %s", t.registryID)
	}
	if !reg.Enabled {
		slog.Info("Skipping policy sweep, registry disabled", "registry", reg.Name)
		return nil
	}

	rows, err := tc.Stores.ServiceStatuses.Find(ctx, store.Condition{store.FieldRegistryID: reg.ID})
	if err != nil {
		return tasks.WrapError(tasks.ReasonPersistence, err,
			"load service statuses for registry %s", reg.Name)
	}

	pending := 0
	for _, row := range rows {
		if row.PolicyState == model.ReferenceStatePublish || row.PolicyState == model.ReferenceStateDelete {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}

	client := t.b.clients.ClientFor(reg)
	if err := client.Authenticate(ctx); err != nil {
		return tasks.ClassifyRemote(err, "authenticate to registry %s for policy sweep", reg.Name)
	}

	localHost := t.localHost(ctx)
	tpl := templateFor(reg.RegistryType)

	applied, failed := 0, 0
	for _, row := range rows {
		var opErr error
		switch row.PolicyState {
		case model.ReferenceStatePublish:
			opErr = t.attach(ctx, tc, client, row, localHost, tpl)
		case model.ReferenceStateDelete:
			opErr = t.detach(ctx, tc, client, row)
		default:
			continue
		}
		if opErr != nil {
			failed++
			slog.Error("Policy operation failed for service, continuing sweep",
				"registry", reg.Name,
				"service_key", row.ServiceKey,
				"state", row.PolicyState,
				"error", opErr)
			tc.Audit.Record(ctx, audit.Record{
				Event: audit.EventPolicyServiceFailed,
				Actor: audit.ActorSystem,
				Detail: map[string]any{
					"registry":    reg.Name,
					"service_key": row.ServiceKey,
					"state":       string(row.PolicyState),
					"error":       opErr.Error(),
				},
			})
			continue
		}
		applied++
	}

	slog.Info("Policy sweep complete",
		"registry", reg.Name,
		"applied", applied,
		"failed", failed)
	return nil
}

// attach converges a Publish row: publish the policy tModel when the policy
// document is local (or a tModel already exists to update), reference it
// from the business service, then mark the row Published.
func (t *sweepTask) attach(
	ctx context.Context,
	tc *tasks.Context,
	client uddi.Client,
	row *model.BusinessServiceStatus,
	localHost string,
	tpl tModelTemplate,
) error {
	if row.PolicyURL == "" {
		// Nothing to attach; a request without a policy URL is a stale
		// row, not a retryable condition.
		slog.Warn("Policy publish requested without a policy URL, clearing",
			"service_key", row.ServiceKey)
		row.PolicyState = model.ReferenceStateNone
		return tc.Stores.ServiceStatuses.Update(ctx, row)
	}

	tModelKey := row.PolicyTModelKey
	if tModelKey != "" || isLocalURL(row.PolicyURL, localHost) {
		key, err := t.publishTModel(ctx, client, row, tModelKey, tpl)
		if err != nil {
			return err
		}
		tModelKey = key
	}

	if err := client.ReferencePolicy(ctx, row.ServiceKey, tModelKey, row.PolicyURL); err != nil {
		return fmt.Errorf("reference policy on service %s: %w", row.ServiceKey, err)
	}

	row.PolicyTModelKey = tModelKey
	row.PolicyState = model.ReferenceStatePublished
	return tc.Stores.ServiceStatuses.Update(ctx, row)
}

// publishTModel publishes the policy tModel, retrying once with a fresh key
// when the remembered key was purged registry-side.
func (t *sweepTask) publishTModel(
	ctx context.Context,
	client uddi.Client,
	row *model.BusinessServiceStatus,
	existingKey string,
	tpl tModelTemplate,
) (string, error) {
	name := fmt.Sprintf(tpl.name, row.ServiceName)
	description := fmt.Sprintf(tpl.description, row.ServiceName)

	key, err := client.PublishPolicy(ctx, existingKey, name, description, row.PolicyURL)
	if errors.Is(err, uddi.ErrInvalidKey) && existingKey != "" {
		slog.Info("Policy tModel key no longer valid, publishing fresh",
			"service_key", row.ServiceKey,
			"tmodel_key", existingKey)
		key, err = client.PublishPolicy(ctx, "", name, description, row.PolicyURL)
	}
	if err != nil {
		return "", fmt.Errorf("publish policy tModel for service %s: %w", row.ServiceKey, err)
	}
	return key, nil
}

// detach converges a Delete row: remove the reference, delete the local
// policy tModel if one was published, then mark the row None. Keys the
// registry already purged count as removed.
func (t *sweepTask) detach(
	ctx context.Context,
	tc *tasks.Context,
	client uddi.Client,
	row *model.BusinessServiceStatus,
) error {
	err := client.RemovePolicyReference(ctx, row.ServiceKey, row.PolicyTModelKey, row.PolicyURL)
	if err != nil && !errors.Is(err, uddi.ErrInvalidKey) {
		return fmt.Errorf("remove policy reference from service %s: %w", row.ServiceKey, err)
	}

	if row.PolicyTModelKey != "" {
		err := client.DeleteTModel(ctx, row.PolicyTModelKey)
		if err != nil && !errors.Is(err, uddi.ErrInvalidKey) {
			return fmt.Errorf("delete policy tModel %s: %w", row.PolicyTModelKey, err)
		}
	}

	row.PolicyTModelKey = ""
	row.PolicyURL = ""
	row.PolicyState = model.ReferenceStateNone
	return tc.Stores.ServiceStatuses.Update(ctx, row)
}

// localHost resolves the cluster's external hostname, or empty when it is
// not configured. Without it every policy URL counts as remote.
func (t *sweepTask) localHost(ctx context.Context) string {
	host, _, err := t.b.resolver.ExternalAddress(ctx)
	if err != nil {
		return ""
	}
	return host
}

// isLocalURL reports whether the policy document is served by this cluster,
// which is what decides between publishing a tModel and referencing the URL
// directly.
func isLocalURL(url, localHost string) bool {
	if localHost == "" {
		return false
	}
	return strings.Contains(url, "://"+localHost+":") || strings.Contains(url, "://"+localHost+"/")
}
