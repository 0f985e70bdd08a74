package main

import (
	"path/filepath"
	"testing"

	"github.com/dshills/asl-go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStore_DefaultsToMemory(t *testing.T) {
	st, teardown, err := buildStore(StoreConfig{})
	require.NoError(t, err)
	defer teardown()

	_, ok := st.(*store.Memory)
	assert.True(t, ok)
}

func TestBuildStore_SQLiteRequiresDSN(t *testing.T) {
	_, _, err := buildStore(StoreConfig{Driver: "sqlite"})
	require.Error(t, err)
}

func TestBuildStore_SQLiteOpensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	st, teardown, err := buildStore(StoreConfig{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	defer teardown()

	_, ok := st.(*store.SQLite)
	assert.True(t, ok)
}

func TestBuildStore_MySQLRequiresDSN(t *testing.T) {
	_, _, err := buildStore(StoreConfig{Driver: "mysql"})
	require.Error(t, err)
}

func TestBuildStore_RedisRequiresDSN(t *testing.T) {
	_, _, err := buildStore(StoreConfig{Driver: "redis"})
	require.Error(t, err)
}

func TestBuildStore_RedisRejectsBadDSN(t *testing.T) {
	_, _, err := buildStore(StoreConfig{Driver: "redis", DSN: "not-a-url"})
	require.Error(t, err)
}

func TestBuildStore_UnknownDriverErrors(t *testing.T) {
	_, _, err := buildStore(StoreConfig{Driver: "carrier-pigeon"})
	require.Error(t, err)
}
