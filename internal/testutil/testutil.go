// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"prepboard/internal/common/cache"
	"prepboard/internal/common/db"
	"prepboard/internal/schema"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// MustUnmarshalJSON unmarshals JSON data or fails the test
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v (body %s)", err, data)
	}
}

// NewSQLite opens a fresh SQLite database with the full schema applied.
func NewSQLite(t *testing.T) *db.SQLDatabase {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "prepboard.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := schema.Ensure(context.Background(), database); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return database
}

// NewRedis starts an in-process redis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	redisCache, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new redis cache: %v", err)
	}
	return redisCache, server
}
