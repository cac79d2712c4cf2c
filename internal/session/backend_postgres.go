package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) (*PostgresBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	b := &PostgresBackend{db: db}
	if err := b.ensureSchema(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS ui_storage (
	scope TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (scope, key)
)`
	if _, err := b.db.Exec(q); err != nil {
		return fmt.Errorf("ensure ui_storage schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Read(ctx context.Context, scope, key string) ([]byte, error) {
	var value string
	const q = `SELECT value FROM ui_storage WHERE scope = $1 AND key = $2`
	if err := b.db.QueryRowContext(ctx, q, scope, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("query ui_storage: %w", err)
	}
	return []byte(value), nil
}

func (b *PostgresBackend) Write(ctx context.Context, scope, key string, value []byte) error {
	const q = `
INSERT INTO ui_storage (scope, key, value, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (scope, key) DO UPDATE
SET value = EXCLUDED.value,
	updated_at = NOW()`
	if _, err := b.db.ExecContext(ctx, q, scope, key, string(value)); err != nil {
		return fmt.Errorf("upsert ui_storage: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, scope, key string) error {
	const q = `DELETE FROM ui_storage WHERE scope = $1 AND key = $2`
	if _, err := b.db.ExecContext(ctx, q, scope, key); err != nil {
		return fmt.Errorf("delete ui_storage: %w", err)
	}
	return nil
}
