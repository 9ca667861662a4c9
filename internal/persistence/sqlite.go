package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
	"nexttram.org/internal/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS preference_snapshot (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	snapshot_id TEXT NOT NULL,
	payload     BLOB NOT NULL,
	written_at  TEXT NOT NULL
)`

// SQLiteSink keeps the snapshot in a single-row table.
type SQLiteSink struct {
	conn *sql.DB
}

func NewSQLiteSink(ctx context.Context, dbPath string) (*SQLiteSink, error) {
	if err := utils.EnsureDirectory(filepath.Dir(dbPath)); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; the syncer is the only client.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return &SQLiteSink{conn: conn}, nil
}

func (s *SQLiteSink) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.conn.QueryRowContext(ctx, `SELECT payload FROM preference_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return payload, nil
}

func (s *SQLiteSink) Save(ctx context.Context, snapshotID string, payload []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO preference_snapshot (id, snapshot_id, payload, written_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			payload     = excluded.payload,
			written_at  = excluded.written_at`,
		snapshotID, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.conn.Close()
}
