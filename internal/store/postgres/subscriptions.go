package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatewaymesh/uddi-reconciler/internal/model"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const subscriptionColumns = `id, registry_id, subscription_key, expiry, check_time, notified_time`

var subscriptionFields = map[string]bool{
	store.FieldRegistryID:      true,
	store.FieldSubscriptionKey: true,
}

type subscriptionStore struct{ q querier }

func (s subscriptionStore) Create(ctx context.Context, sub *model.RegistrySubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO registry_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.RegistryID, sub.SubscriptionKey, sub.Expiry, sub.CheckTime, sub.NotifiedTime)
	return err
}

func (s subscriptionStore) Update(ctx context.Context, sub *model.RegistrySubscription) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE registry_subscriptions SET
			registry_id = $2, subscription_key = $3,
			expiry = $4, check_time = $5, notified_time = $6
		WHERE id = $1`,
		sub.ID, sub.RegistryID, sub.SubscriptionKey, sub.Expiry, sub.CheckTime, sub.NotifiedTime)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s subscriptionStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM registry_subscriptions WHERE id = $1`, id)
	return err
}

func (s subscriptionStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RegistrySubscription, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM registry_subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return sub, nil
}

func (s subscriptionStore) Find(ctx context.Context, cond store.Condition) ([]*model.RegistrySubscription, error) {
	where, args, err := whereClause(cond, subscriptionFields)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM registry_subscriptions`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RegistrySubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubscription(row rowScanner) (*model.RegistrySubscription, error) {
	var sub model.RegistrySubscription
	err := row.Scan(&sub.ID, &sub.RegistryID, &sub.SubscriptionKey,
		&sub.Expiry, &sub.CheckTime, &sub.NotifiedTime)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
