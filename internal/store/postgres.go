package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlob stores the serialized collection in a single-row snapshot
// table, keeping the same load/save-whole-collection contract as the redis
// substrate.
type PostgresBlob struct {
	pool *pgxpool.Pool
}

// NewPostgresBlob creates a postgres-backed blob.
func NewPostgresBlob(pool *pgxpool.Pool) *PostgresBlob {
	return &PostgresBlob{pool: pool}
}

// CreateSchema creates the snapshot table if it does not exist.
func (p *PostgresBlob) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS link_snapshots (
			id         smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			data       bytea NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`

	_, err := p.pool.Exec(ctx, query)

	return err
}

// Load returns the stored snapshot, or ErrNoSnapshot when the row is absent.
func (p *PostgresBlob) Load(ctx context.Context) ([]byte, error) {
	var data []byte

	err := p.pool.QueryRow(ctx, `SELECT data FROM link_snapshots WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}

		return nil, err
	}

	return data, nil
}

// Save replaces the stored snapshot.
func (p *PostgresBlob) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO link_snapshots (id, data, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`

	_, err := p.pool.Exec(ctx, query, data)

	return err
}
