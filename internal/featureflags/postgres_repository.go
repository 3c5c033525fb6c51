package featureflags

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pollenpaw/pollenpaw/internal/database"
)

const upsertFlagSQL = `
	INSERT INTO feature_flags (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository stores flags in the feature_flags table. Values are JSONB.
type PostgresRepository struct {
	pool database.DBPool
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPostgresRepository creates a new PostgreSQL feature flags repository.
func NewPostgresRepository(pool database.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetAllFlags returns every stored flag.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM feature_flags ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying feature flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]*Flag)
	for rows.Next() {
		var (
			flag      Flag
			valueJSON []byte
		)
		if err := rows.Scan(&flag.Key, &valueJSON, &flag.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(valueJSON, &flag.Value); err != nil {
			return nil, fmt.Errorf("decoding flag %s: %w", flag.Key, err)
		}
		flags[flag.Key] = &flag
	}
	return flags, rows.Err()
}

// SetFlags upserts flags in a transaction. Pools without transaction support
// write them one at a time.
func (r *PostgresRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	beginner, ok := r.pool.(txBeginner)
	if !ok {
		return upsertFlags(ctx, r.pool, flags)
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := upsertFlags(ctx, tx, flags); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertFlags(ctx context.Context, db execer, flags []*Flag) error {
	for _, flag := range flags {
		valueJSON, err := json.Marshal(flag.Value)
		if err != nil {
			return fmt.Errorf("encoding flag %s: %w", flag.Key, err)
		}
		if _, err := db.Exec(ctx, upsertFlagSQL, flag.Key, valueJSON, flag.UpdatedAt); err != nil {
			return fmt.Errorf("storing flag %s: %w", flag.Key, err)
		}
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
