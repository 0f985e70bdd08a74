package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dshills/asl-go/asl"
	_ "modernc.org/sqlite"
)

// SQLite is a single-file asl.Store backed by modernc.org/sqlite (no cgo).
// Suitable for local development and single-process deployments where
// durable resume across restarts matters but a database server doesn't
// exist yet.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLite opens (and migrates) a SQLite-backed checkpoint store.
// path may be a file path or ":memory:".
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			next_state TEXT NOT NULL,
			document TEXT NOT NULL,
			cost REAL NOT NULL,
			tokens INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate checkpoints table: %w", err)
	}
	return nil
}

func (s *SQLite) SaveCheckpoint(ctx context.Context, cp asl.Checkpoint) error {
	docJSON, err := json.Marshal(cp.Document)
	if err != nil {
		return fmt.Errorf("marshal checkpoint document: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, run_id, next_state, document, cost, tokens, label, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			next_state = excluded.next_state,
			document = excluded.document,
			cost = excluded.cost,
			tokens = excluded.tokens,
			label = excluded.label,
			timestamp = excluded.timestamp
	`, cp.ID, cp.RunID, cp.NextState, string(docJSON), cp.Cost, cp.Tokens, cp.Label, cp.Timestamp.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLite) LoadCheckpoint(ctx context.Context, id string) (asl.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, next_state, document, cost, tokens, label, timestamp
		FROM checkpoints WHERE id = ?
	`, id)
	return scanCheckpoint(row)
}
