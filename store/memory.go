// Package store provides Checkpoint persistence backends for the asl
// Engine, grounded on the teacher's graph/store package: an in-memory map
// for tests, and SQLite/MySQL/Redis backends for durable pause/resume.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/asl-go/asl"
)

// ErrNotFound is returned when a checkpoint ID has no saved Checkpoint.
var ErrNotFound = errors.New("store: checkpoint not found")

// Memory is an in-memory asl.Store. Data is lost when the process exits;
// suitable for tests and single-process workflows that don't need
// cross-restart resume.
type Memory struct {
	mu          sync.RWMutex
	checkpoints map[string]asl.Checkpoint
}

// NewMemory creates an empty in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{checkpoints: make(map[string]asl.Checkpoint)}
}

func (m *Memory) SaveCheckpoint(_ context.Context, cp asl.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[cp.ID] = cp
	return nil
}

func (m *Memory) LoadCheckpoint(_ context.Context, id string) (asl.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[id]
	if !ok {
		return asl.Checkpoint{}, ErrNotFound
	}
	return cp, nil
}
