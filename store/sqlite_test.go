package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/asl-go/asl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_SaveAndLoad(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	cp := asl.Checkpoint{
		ID:        "ckpt-sql-1",
		RunID:     "run-sql-1",
		NextState: "Resume",
		Document:  asl.Document{"step": "two"},
		Cost:      1.25,
		Tokens:    42,
		Label:     "review",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.SaveCheckpoint(ctx, cp))

	got, err := s.LoadCheckpoint(ctx, "ckpt-sql-1")
	require.NoError(t, err)
	assert.Equal(t, cp.RunID, got.RunID)
	assert.Equal(t, cp.NextState, got.NextState)
	assert.Equal(t, cp.Tokens, got.Tokens)
	assert.InDelta(t, cp.Cost, got.Cost, 0.0001)
}

func TestSQLite_SaveUpserts(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCheckpoint(ctx, asl.Checkpoint{ID: "dup", RunID: "r", Label: "v1", Timestamp: time.Now()}))
	require.NoError(t, s.SaveCheckpoint(ctx, asl.Checkpoint{ID: "dup", RunID: "r", Label: "v2", Timestamp: time.Now()}))

	got, err := s.LoadCheckpoint(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Label)
}

func TestSQLite_LoadMissing(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadCheckpoint(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
