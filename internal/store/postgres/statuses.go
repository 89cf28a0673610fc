package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const serviceStatusColumns = `id, registry_id, service_key, service_name,
	metrics_state, policy_state, policy_tmodel_key, policy_url`

var serviceStatusFields = map[string]bool{
	store.FieldRegistryID: true,
	store.FieldServiceKey: true,
}

type serviceStatusStore struct{ q querier }

func (s serviceStatusStore) Create(ctx context.Context, st *model.BusinessServiceStatus) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO business_service_statuses (`+serviceStatusColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.ID, st.RegistryID, st.ServiceKey, st.ServiceName,
		st.MetricsState, st.PolicyState, st.PolicyTModelKey, st.PolicyURL)
	return err
}

func (s serviceStatusStore) Update(ctx context.Context, st *model.BusinessServiceStatus) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE business_service_statuses SET
			registry_id = $2, service_key = $3, service_name = $4,
			metrics_state = $5, policy_state = $6,
			policy_tmodel_key = $7, policy_url = $8
		WHERE id = $1`,
		st.ID, st.RegistryID, st.ServiceKey, st.ServiceName,
		st.MetricsState, st.PolicyState, st.PolicyTModelKey, st.PolicyURL)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s serviceStatusStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM business_service_statuses WHERE id = $1`, id)
	return err
}

func (s serviceStatusStore) GetByID(ctx context.Context, id uuid.UUID) (*model.BusinessServiceStatus, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+serviceStatusColumns+` FROM business_service_statuses WHERE id = $1`, id)
	st, err := scanServiceStatus(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return st, nil
}

func (s serviceStatusStore) Find(ctx context.Context, cond store.Condition) ([]*model.BusinessServiceStatus, error) {
	where, args, err := whereClause(cond, serviceStatusFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+serviceStatusColumns+` FROM business_service_statuses`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BusinessServiceStatus
	for rows.Next() {
		st, err := scanServiceStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanServiceStatus(row rowScanner) (*model.BusinessServiceStatus, error) {
	var st model.BusinessServiceStatus
	err := row.Scan(&st.ID, &st.RegistryID, &st.ServiceKey, &st.ServiceName,
		&st.MetricsState, &st.PolicyState, &st.PolicyTModelKey, &st.PolicyURL)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
