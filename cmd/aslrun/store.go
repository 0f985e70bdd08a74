package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/asl-go/asl"
	"github.com/dshills/asl-go/store"
	"github.com/redis/go-redis/v9"
)

// closer is satisfied by store backends holding a live connection; memory
// and Redis need no explicit teardown.
type closer interface {
	Close() error
}

func buildStore(cfg StoreConfig) (asl.Store, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "", "memory":
		return store.NewMemory(), noop, nil
	case "sqlite":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("sqlite store requires dsn (file path)")
		}
		s, err := store.NewSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closeFunc(s), nil
	case "mysql":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("mysql store requires dsn")
		}
		s, err := store.NewMySQL(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, closeFunc(s), nil
	case "redis":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("redis store requires dsn (redis:// URL)")
		}
		opts, err := redis.ParseURL(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis dsn: %w", err)
		}
		return store.NewRedis(redis.NewClient(opts), 24*time.Hour), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func closeFunc(c closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			slog.Warn("store close failed", "error", err)
		}
	}
}
