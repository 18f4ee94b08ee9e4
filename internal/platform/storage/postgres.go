package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores values in the kv_entries table created by the
// platform migrations.
type PostgresBackend struct {
	DB *pgxpool.Pool
}

func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{DB: db}
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.DB.QueryRow(ctx, "SELECT value FROM kv_entries WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.DB.Exec(ctx, `
    INSERT INTO kv_entries (key, value, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key)
    DO UPDATE SET value = EXCLUDED.value, updated_at = now()
  `, key, value)
	return err
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := p.DB.Exec(ctx, "DELETE FROM kv_entries WHERE key = $1", key)
	return err
}
