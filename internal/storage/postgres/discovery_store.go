// Package postgres provides Postgres-backed persistence for discoveries.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DiscoveryStoreConfig controls the Postgres connection pool used for
// discovery rows.
type DiscoveryStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// DiscoveryStore writes discovered names into Postgres.
type DiscoveryStore struct {
	pool  execCloser
	table string
}

// NewDiscoveryStore creates a Postgres-backed DiscoveryStore using the
// provided config.
func NewDiscoveryStore(ctx context.Context, cfg DiscoveryStoreConfig) (*DiscoveryStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "discoveries"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DiscoveryStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewDiscoveryStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewDiscoveryStoreWithPool(pool execCloser, table string) (*DiscoveryStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "discoveries"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &DiscoveryStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *DiscoveryStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreDiscoveries inserts one row per discovered name for a run/version
// pair. Re-runs of the same (run, version, name) triple are ignored.
//
// Expected schema:
//
//	CREATE TABLE discoveries (
//		run_id UUID NOT NULL,
//		api_version TEXT NOT NULL,
//		name TEXT NOT NULL,
//		recorded_at TIMESTAMPTZ NOT NULL,
//		PRIMARY KEY (run_id, api_version, name)
//	);
func (s *DiscoveryStore) StoreDiscoveries(
	ctx context.Context,
	runID string,
	version string,
	names []string,
	recordedAt time.Time,
) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("discovery store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if version == "" {
		return fmt.Errorf("api version is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, api_version, name, recorded_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT DO NOTHING
`, s.table)
	for _, name := range names {
		if _, err := s.pool.Exec(ctx, query, runID, version, name, recordedAt); err != nil {
			return fmt.Errorf("insert discovery %q: %w", name, err)
		}
	}
	return nil
}
