package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"prepboard/internal/common/ratelimit"
	"prepboard/internal/testutil"
	pkgerrors "prepboard/pkg/errors"
)

func TestAllowWithinWindow(t *testing.T) {
	redisCache, server := testutil.NewRedis(t)
	limiter := ratelimit.NewService(redisCache, time.Minute, time.Second)
	ctx := context.Background()
	key := ratelimit.Key("user", 7, "progress")

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, key, 3, 0); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	err := limiter.Allow(ctx, key, 3, 0)
	if pkgerrors.GetCode(err) != pkgerrors.TooManyRequests {
		t.Fatalf("expected TooManyRequests, got %v", err)
	}

	server.FastForward(time.Minute + time.Second)
	if err := limiter.Allow(ctx, key, 3, 0); err != nil {
		t.Fatalf("window should have reset: %v", err)
	}
}

func TestAllowZeroMaxDisablesLimit(t *testing.T) {
	redisCache, _ := testutil.NewRedis(t)
	limiter := ratelimit.NewService(redisCache, time.Minute, time.Second)

	for i := 0; i < 5; i++ {
		if err := limiter.Allow(context.Background(), "k", 0, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestAllowCacheUnavailable(t *testing.T) {
	limiter := ratelimit.NewService(nil, time.Second, time.Second)
	err := limiter.Allow(context.Background(), "k", 1, time.Second)
	if pkgerrors.GetCode(err) != pkgerrors.ServiceUnavailable {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestAllowRedisDown(t *testing.T) {
	redisCache, server := testutil.NewRedis(t)
	limiter := ratelimit.NewService(redisCache, time.Second, time.Second)
	server.Close()

	err := limiter.Allow(context.Background(), "k", 1, time.Second)
	if pkgerrors.GetCode(err) != pkgerrors.CacheError {
		t.Fatalf("expected CacheError, got %v", err)
	}
}
