// Package postgres implements the entity stores on PostgreSQL via pgx.
// WithinTransaction maps directly onto database transactions, so task
// writes roll back together on failure.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatewaymesh/uddi-reconciler/internal/config"
	"github.com/gatewaymesh/uddi-reconciler/internal/store"
)

const (
	defaultMaxConns        = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting the same
// store code run inside and outside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a PostgreSQL-backed database handle.
type DB struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool from the given configuration and verifies
// it with a ping.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	connString, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database configuration: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxOpenConns
	if poolCfg.MaxConns == 0 {
		poolCfg.MaxConns = defaultMaxConns
	}
	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection established",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database)
	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (d *DB) Close() {
	if d.pool != nil {
		slog.Info("Closing database connection")
		d.pool.Close()
	}
}

// Stores returns the store set running directly on the pool.
func (d *DB) Stores() store.Stores {
	return boundStores(d.pool)
}

// WithinTransaction implements store.TxRunner.
func (d *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a harmless no-op.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, boundStores(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func boundStores(q querier) store.Stores {
	return store.Stores{
		Registries:      registryStore{q},
		ProxiedInfos:    proxiedInfoStore{q},
		ProxiedServices: proxiedServiceStore{q},
		PublishStatuses: publishStatusStore{q},
		ServiceControls: serviceControlStore{q},
		Subscriptions:   subscriptionStore{q},
		ServiceStatuses: serviceStatusStore{q},
	}
}

// conditionColumns is the fixed order fields render into WHERE clauses.
var conditionColumns = []string{
	store.FieldRegistryID,
	store.FieldServiceID,
	store.FieldServiceKey,
	store.FieldSubscriptionKey,
	store.FieldProxiedServiceInfoID,
	store.FieldMetricsEnabled,
	store.FieldUnderUDDIControl,
}

// whereClause renders a Condition against the columns a table supports.
// Condition field names are the column names.
func whereClause(cond store.Condition, supported map[string]bool) (string, []any, error) {
	if len(cond) == 0 {
		return "", nil, nil
	}

	clause := ""
	args := make([]any, 0, len(cond))
	matched := 0
	for _, field := range conditionColumns {
		val, ok := cond[field]
		if !ok {
			continue
		}
		if !supported[field] {
			return "", nil, fmt.Errorf("unsupported query field %q", field)
		}
		matched++
		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}
		args = append(args, val)
		clause += fmt.Sprintf("%s = $%d", field, len(args))
	}
	if matched != len(cond) {
		return "", nil, fmt.Errorf("condition contains unknown fields: %v", cond)
	}
	return clause, args, nil
}

func notFoundIfNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
