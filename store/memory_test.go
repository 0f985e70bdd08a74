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

func TestMemory_SaveAndLoad(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	cp := asl.Checkpoint{
		ID:        "ckpt-1",
		RunID:     "run-1",
		NextState: "Resume",
		Document:  asl.Document{"x": 1.0},
		Cost:      0.5,
		Tokens:    100,
		Label:     "manual",
		Timestamp: time.Now(),
	}
	require.NoError(t, s.SaveCheckpoint(ctx, cp))

	got, err := s.LoadCheckpoint(ctx, "ckpt-1")
	require.NoError(t, err)
	assert.Equal(t, cp.RunID, got.RunID)
	assert.Equal(t, cp.NextState, got.NextState)
	assert.Equal(t, cp.Label, got.Label)
}

func TestMemory_LoadMissing(t *testing.T) {
	s := NewMemory()
	_, err := s.LoadCheckpoint(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemory_SaveOverwrites(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.SaveCheckpoint(ctx, asl.Checkpoint{ID: "a", Label: "first"}))
	require.NoError(t, s.SaveCheckpoint(ctx, asl.Checkpoint{ID: "a", Label: "second"}))

	got, err := s.LoadCheckpoint(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Label)
}
