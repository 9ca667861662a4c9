package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS preference_snapshot (
	id          SMALLINT PRIMARY KEY CHECK (id = 1),
	snapshot_id UUID NOT NULL,
	payload     JSONB NOT NULL,
	written_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink keeps the snapshot in a single-row table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload::text FROM preference_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return payload, nil
}

func (s *PostgresSink) Save(ctx context.Context, snapshotID string, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preference_snapshot (id, snapshot_id, payload, written_at)
		VALUES (1, $1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET
			snapshot_id = EXCLUDED.snapshot_id,
			payload     = EXCLUDED.payload,
			written_at  = EXCLUDED.written_at`,
		snapshotID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
