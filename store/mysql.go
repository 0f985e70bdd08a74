package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/asl-go/asl"
	_ "github.com/go-sql-driver/mysql"
)

// MySQL is a connection-pooled asl.Store for production, multi-worker
// deployments where checkpoints must survive process restarts and be
// visible to every worker.
//
// DSN format: [username[:password]@][protocol[(address)]]/dbname[?params].
// The timestamp column is RFC 3339 text, so parseTime is not required.
type MySQL struct {
	db *sql.DB
}

// NewMySQL opens (and migrates) a MySQL-backed checkpoint store.
func NewMySQL(dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQL{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQL) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id VARCHAR(255) PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL,
			next_state VARCHAR(255) NOT NULL,
			document JSON NOT NULL,
			cost DOUBLE NOT NULL,
			tokens BIGINT NOT NULL,
			label VARCHAR(255) NOT NULL DEFAULT '',
			timestamp VARCHAR(64) NOT NULL,
			INDEX idx_checkpoints_run_id (run_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate checkpoints table: %w", err)
	}
	return nil
}

func (s *MySQL) SaveCheckpoint(ctx context.Context, cp asl.Checkpoint) error {
	docJSON, err := json.Marshal(cp.Document)
	if err != nil {
		return fmt.Errorf("marshal checkpoint document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, run_id, next_state, document, cost, tokens, label, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			run_id = VALUES(run_id),
			next_state = VALUES(next_state),
			document = VALUES(document),
			cost = VALUES(cost),
			tokens = VALUES(tokens),
			label = VALUES(label),
			timestamp = VALUES(timestamp)
	`, cp.ID, cp.RunID, cp.NextState, string(docJSON), cp.Cost, cp.Tokens, cp.Label, cp.Timestamp.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *MySQL) LoadCheckpoint(ctx context.Context, id string) (asl.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, next_state, document, cost, tokens, label, timestamp
		FROM checkpoints WHERE id = ?
	`, id)
	return scanCheckpoint(row)
}

// Close releases the MySQL connection pool.
func (s *MySQL) Close() error {
	return s.db.Close()
}
