package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
)

const registryColumns = `id, name, enabled, registry_type,
	inquiry_url, publication_url, subscription_url, security_url,
	username, password,
	monitoring_enabled, monitoring_frequency,
	metrics_enabled, metric_publish_frequency,
	subscribe_for_notifications`

type registryStore struct{ q querier }

func (s registryStore) Create(ctx context.Context, reg *model.Registry) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO registries (`+registryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		reg.ID, reg.Name, reg.Enabled, reg.RegistryType,
		reg.InquiryURL, reg.PublicationURL, reg.SubscriptionURL, reg.SecurityURL,
		reg.Username, reg.Password,
		reg.MonitoringEnabled, reg.MonitoringFrequency,
		reg.MetricsEnabled, reg.MetricPublishFrequency,
		reg.SubscribeForNotifications)
	return err
}

func (s registryStore) Update(ctx context.Context, reg *model.Registry) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE registries SET
			name = $2, enabled = $3, registry_type = $4,
			inquiry_url = $5, publication_url = $6, subscription_url = $7, security_url = $8,
			username = $9, password = $10,
			monitoring_enabled = $11, monitoring_frequency = $12,
			metrics_enabled = $13, metric_publish_frequency = $14,
			subscribe_for_notifications = $15
		WHERE id = $1`,
		reg.ID, reg.Name, reg.Enabled, reg.RegistryType,
		reg.InquiryURL, reg.PublicationURL, reg.SubscriptionURL, reg.SecurityURL,
		reg.Username, reg.Password,
		reg.MonitoringEnabled, reg.MonitoringFrequency,
		reg.MetricsEnabled, reg.MetricPublishFrequency,
		reg.SubscribeForNotifications)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s registryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM registries WHERE id = $1`, id)
	return err
}

func (s registryStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Registry, error) {
	row := s.q.QueryRow(ctx, `SELECT `+registryColumns+` FROM registries WHERE id = $1`, id)
	reg, err := scanRegistry(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return reg, nil
}

func (s registryStore) List(ctx context.Context) ([]*model.Registry, error) {
	rows, err := s.q.Query(ctx, `SELECT `+registryColumns+` FROM registries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Registry
	for rows.Next() {
		reg, err := scanRegistry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistry(row rowScanner) (*model.Registry, error) {
	var reg model.Registry
	err := row.Scan(
		&reg.ID, &reg.Name, &reg.Enabled, &reg.RegistryType,
		&reg.InquiryURL, &reg.PublicationURL, &reg.SubscriptionURL, &reg.SecurityURL,
		&reg.Username, &reg.Password,
		&reg.MonitoringEnabled, &reg.MonitoringFrequency,
		&reg.MetricsEnabled, &reg.MetricPublishFrequency,
		&reg.SubscribeForNotifications)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}
