package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const proxiedInfoColumns = `id, registry_id, service_id, publish_type,
	business_key, business_name, wsdl_hash,
	metrics_enabled, update_on_local_change`

var proxiedInfoFields = map[string]bool{
	store.FieldRegistryID:     true,
	store.FieldServiceID:      true,
	store.FieldMetricsEnabled: true,
}

type proxiedInfoStore struct{ q querier }

func (s proxiedInfoStore) Create(ctx context.Context, info *model.ProxiedServiceInfo) error {
	if info.ID == uuid.Nil {
		info.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO proxied_service_infos (`+proxiedInfoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		info.ID, info.RegistryID, info.ServiceID, info.PublishType,
		info.BusinessKey, info.BusinessName, info.WsdlHash,
		info.MetricsEnabled, info.UpdateOnLocalChange)
	return err
}

func (s proxiedInfoStore) Update(ctx context.Context, info *model.ProxiedServiceInfo) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE proxied_service_infos SET
			registry_id = $2, service_id = $3, publish_type = $4,
			business_key = $5, business_name = $6, wsdl_hash = $7,
			metrics_enabled = $8, update_on_local_change = $9
		WHERE id = $1`,
		info.ID, info.RegistryID, info.ServiceID, info.PublishType,
		info.BusinessKey, info.BusinessName, info.WsdlHash,
		info.MetricsEnabled, info.UpdateOnLocalChange)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s proxiedInfoStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM proxied_service_infos WHERE id = $1`, id)
	return err
}

func (s proxiedInfoStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ProxiedServiceInfo, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+proxiedInfoColumns+` FROM proxied_service_infos WHERE id = $1`, id)
	info, err := scanProxiedInfo(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return info, nil
}

func (s proxiedInfoStore) Find(ctx context.Context, cond store.Condition) ([]*model.ProxiedServiceInfo, error) {
	where, args, err := whereClause(cond, proxiedInfoFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+proxiedInfoColumns+` FROM proxied_service_infos`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ProxiedServiceInfo
	for rows.Next() {
		info, err := scanProxiedInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func scanProxiedInfo(row rowScanner) (*model.ProxiedServiceInfo, error) {
	var info model.ProxiedServiceInfo
	err := row.Scan(
		&info.ID, &info.RegistryID, &info.ServiceID, &info.PublishType,
		&info.BusinessKey, &info.BusinessName, &info.WsdlHash,
		&info.MetricsEnabled, &info.UpdateOnLocalChange)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

const proxiedServiceColumns = `id, proxied_service_info_id, service_key, service_name, wsdl_service_name`

var proxiedServiceFields = map[string]bool{
	store.FieldProxiedServiceInfoID: true,
	store.FieldServiceKey:           true,
}

type proxiedServiceStore struct{ q querier }

func (s proxiedServiceStore) Create(ctx context.Context, svc *model.ProxiedService) error {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO proxied_services (`+proxiedServiceColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		svc.ID, svc.ProxiedServiceInfoID, svc.ServiceKey, svc.ServiceName, svc.WsdlServiceName)
	return err
}

func (s proxiedServiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM proxied_services WHERE id = $1`, id)
	return err
}

func (s proxiedServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ProxiedService, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+proxiedServiceColumns+` FROM proxied_services WHERE id = $1`, id)
	svc, err := scanProxiedService(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return svc, nil
}

func (s proxiedServiceStore) Find(ctx context.Context, cond store.Condition) ([]*model.ProxiedService, error) {
	where, args, err := whereClause(cond, proxiedServiceFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+proxiedServiceColumns+` FROM proxied_services`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ProxiedService
	for rows.Next() {
		svc, err := scanProxiedService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func scanProxiedService(row rowScanner) (*model.ProxiedService, error) {
	var svc model.ProxiedService
	err := row.Scan(&svc.ID, &svc.ProxiedServiceInfoID, &svc.ServiceKey, &svc.ServiceName, &svc.WsdlServiceName)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

const publishStatusColumns = `id, proxied_service_info_id, state`

var publishStatusFields = map[string]bool{
	store.FieldProxiedServiceInfoID: true,
}

type publishStatusStore struct{ q querier }

func (s publishStatusStore) Create(ctx context.Context, st *model.PublishStatus) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO publish_statuses (`+publishStatusColumns+`)
		VALUES ($1, $2, $3)`,
		st.ID, st.ProxiedServiceInfoID, st.State)
	return err
}

func (s publishStatusStore) Update(ctx context.Context, st *model.PublishStatus) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE publish_statuses SET proxied_service_info_id = $2, state = $3
		WHERE id = $1`,
		st.ID, st.ProxiedServiceInfoID, st.State)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s publishStatusStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM publish_statuses WHERE id = $1`, id)
	return err
}

func (s publishStatusStore) GetByID(ctx context.Context, id uuid.UUID) (*model.PublishStatus, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+publishStatusColumns+` FROM publish_statuses WHERE id = $1`, id)
	st, err := scanPublishStatus(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return st, nil
}

func (s publishStatusStore) Find(ctx context.Context, cond store.Condition) ([]*model.PublishStatus, error) {
	where, args, err := whereClause(cond, publishStatusFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+publishStatusColumns+` FROM publish_statuses`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PublishStatus
	for rows.Next() {
		st, err := scanPublishStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanPublishStatus(row rowScanner) (*model.PublishStatus, error) {
	var st model.PublishStatus
	if err := row.Scan(&st.ID, &st.ProxiedServiceInfoID, &st.State); err != nil {
		return nil, err
	}
	return &st, nil
}
