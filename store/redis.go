package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/asl-go/asl"
	"github.com/redis/go-redis/v9"
)

// Redis is a fast-resume asl.Store: checkpoints are small JSON blobs keyed
// by checkpoint ID, a fit for Redis's GET/SET rather than the relational
// schema the SQL-backed stores use. Intended to sit in front of (or
// instead of) SQLite/MySQL when resume latency matters more than the
// durability of a disk-backed database.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis builds a Redis-backed checkpoint store. ttl of zero means
// checkpoints never expire.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: "asl:checkpoint:", ttl: ttl}
}

func (s *Redis) key(id string) string {
	return s.prefix + id
}

func (s *Redis) SaveCheckpoint(ctx context.Context, cp asl.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cp.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *Redis) LoadCheckpoint(ctx context.Context, id string) (asl.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return asl.Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return asl.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	var cp asl.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return asl.Checkpoint{}, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return cp, nil
}
