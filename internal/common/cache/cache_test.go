package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"prepboard/internal/common/cache"
	"prepboard/internal/testutil"
)

type payload struct {
	Names []string `json:"names"`
}

func TestGetWithCachedStoresAndServes(t *testing.T) {
	redisCache, _ := testutil.NewRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (payload, error) {
		calls++
		return payload{Names: []string{"a", "b"}}, nil
	}
	marshal := func(p payload) (string, error) { return cache.MarshalCompressed(p) }
	unmarshal := func(s string) (payload, error) {
		var p payload
		err := cache.UnmarshalCompressed(s, &p)
		return p, err
	}
	isEmpty := func(p payload) bool { return len(p.Names) == 0 }

	for i := 0; i < 3; i++ {
		got, err := cache.GetWithCached(ctx, redisCache, "k", time.Minute, time.Second, isEmpty, marshal, unmarshal, fetch)
		if err != nil {
			t.Fatalf("GetWithCached: %v", err)
		}
		if len(got.Names) != 2 || got.Names[1] != "b" {
			t.Fatalf("unexpected payload: %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestGetWithCachedCachesEmpty(t *testing.T) {
	redisCache, server := testutil.NewRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (*payload, error) {
		calls++
		return nil, nil
	}
	isEmpty := func(p *payload) bool { return p == nil }
	marshal := func(p *payload) (string, error) { return cache.MarshalCompressed(p) }
	unmarshal := func(string) (*payload, error) { return nil, errors.New("unused") }

	for i := 0; i < 2; i++ {
		got, err := cache.GetWithCached(ctx, redisCache, "missing", time.Minute, time.Second, isEmpty, marshal, unmarshal, fetch)
		if err != nil || got != nil {
			t.Fatalf("GetWithCached = %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	value, _ := server.Get("missing")
	if value != cache.NullCacheValue {
		t.Errorf("stored %q, want null sentinel", value)
	}
}

func TestGetWithCachedPropagatesFetchError(t *testing.T) {
	redisCache, server := testutil.NewRedis(t)
	boom := errors.New("boom")

	_, err := cache.GetWithCached(context.Background(), redisCache, "k", time.Minute, time.Second,
		func(int) bool { return false },
		func(int) (string, error) { return "1", nil },
		func(string) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if server.Exists("k") {
		t.Error("failed fetch must not populate cache")
	}
}

func TestDelByPrefix(t *testing.T) {
	redisCache, server := testutil.NewRedis(t)
	ctx := context.Background()

	for _, key := range []string{"catalog:a", "catalog:b", "catalog:c", "other"} {
		if err := redisCache.Set(ctx, key, "v", 0); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	removed, err := redisCache.DelByPrefix(ctx, "catalog:")
	if err != nil {
		t.Fatalf("DelByPrefix: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if !server.Exists("other") {
		t.Error("unrelated key should survive")
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := cache.JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("JitterTTL(%v) = %v out of range", ttl, got)
		}
	}
	if cache.JitterTTL(0) != 0 {
		t.Error("zero ttl should stay zero")
	}
}

func TestCompressedRoundTripRejectsGarbage(t *testing.T) {
	var p payload
	if err := cache.UnmarshalCompressed("not zstd", &p); err == nil {
		t.Error("expected error for non-zstd input")
	}
}
