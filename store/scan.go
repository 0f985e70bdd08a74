package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/asl-go/asl"
)

const timeLayout = time.RFC3339Nano

// rowScanner abstracts *sql.Row and *sql.Rows so scanCheckpoint serves both
// the SQLite and MySQL backends.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCheckpoint(row rowScanner) (asl.Checkpoint, error) {
	var (
		cp         asl.Checkpoint
		docJSON    string
		timestamp  string
	)
	err := row.Scan(&cp.ID, &cp.RunID, &cp.NextState, &docJSON, &cp.Cost, &cp.Tokens, &cp.Label, &timestamp)
	if err == sql.ErrNoRows {
		return asl.Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return asl.Checkpoint{}, fmt.Errorf("scan checkpoint: %w", err)
	}
	if err := json.Unmarshal([]byte(docJSON), &cp.Document); err != nil {
		return asl.Checkpoint{}, fmt.Errorf("unmarshal checkpoint document: %w", err)
	}
	cp.Timestamp, err = time.Parse(timeLayout, timestamp)
	if err != nil {
		return asl.Checkpoint{}, fmt.Errorf("parse checkpoint timestamp: %w", err)
	}
	return cp, nil
}
