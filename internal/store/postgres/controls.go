package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const serviceControlColumns = `id, registry_id, service_id, service_key, service_name,
	business_key, business_name,
	under_uddi_control, has_had_endpoint_removed, metrics_enabled`

var serviceControlFields = map[string]bool{
	store.FieldRegistryID:       true,
	store.FieldServiceID:        true,
	store.FieldServiceKey:       true,
	store.FieldUnderUDDIControl: true,
	store.FieldMetricsEnabled:   true,
}

type serviceControlStore struct{ q querier }

func (s serviceControlStore) Create(ctx context.Context, sc *model.ServiceControl) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO service_controls (`+serviceControlColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sc.ID, sc.RegistryID, sc.ServiceID, sc.ServiceKey, sc.ServiceName,
		sc.BusinessKey, sc.BusinessName,
		sc.UnderUDDIControl, sc.HasHadEndpointRemoved, sc.MetricsEnabled)
	return err
}

func (s serviceControlStore) Update(ctx context.Context, sc *model.ServiceControl) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE service_controls SET
			registry_id = $2, service_id = $3, service_key = $4, service_name = $5,
			business_key = $6, business_name = $7,
			under_uddi_control = $8, has_had_endpoint_removed = $9, metrics_enabled = $10
		WHERE id = $1`,
		sc.ID, sc.RegistryID, sc.ServiceID, sc.ServiceKey, sc.ServiceName,
		sc.BusinessKey, sc.BusinessName,
		sc.UnderUDDIControl, sc.HasHadEndpointRemoved, sc.MetricsEnabled)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s serviceControlStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM service_controls WHERE id = $1`, id)
	return err
}

func (s serviceControlStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ServiceControl, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+serviceControlColumns+` FROM service_controls WHERE id = $1`, id)
	sc, err := scanServiceControl(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return sc, nil
}

func (s serviceControlStore) Find(ctx context.Context, cond store.Condition) ([]*model.ServiceControl, error) {
	where, args, err := whereClause(cond, serviceControlFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+serviceControlColumns+` FROM service_controls`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ServiceControl
	for rows.Next() {
		sc, err := scanServiceControl(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanServiceControl(row rowScanner) (*model.ServiceControl, error) {
	var sc model.ServiceControl
	err := row.Scan(
		&sc.ID, &sc.RegistryID, &sc.ServiceID, &sc.ServiceKey, &sc.ServiceName,
		&sc.BusinessKey, &sc.BusinessName,
		&sc.UnderUDDIControl, &sc.HasHadEndpointRemoved, &sc.MetricsEnabled)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}
