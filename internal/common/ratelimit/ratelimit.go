// Package ratelimit enforces fixed-window request limits in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"prepboard/internal/common/cache"
	pkgerrors "prepboard/pkg/errors"
)

// Service enforces fixed-window limits using a shared cache.
type Service struct {
	cache        cache.Cache
	window       time.Duration
	redisTimeout time.Duration
}

func NewService(cacheClient cache.Cache, window time.Duration, redisTimeout time.Duration) *Service {
	if window <= 0 {
		window = time.Minute
	}
	if redisTimeout <= 0 {
		redisTimeout = 200 * time.Millisecond
	}
	return &Service{cache: cacheClient, window: window, redisTimeout: redisTimeout}
}

// Allow counts one hit on key and fails with TooManyRequests once more than
// max hits land inside the window. A zero window uses the service default.
func (s *Service) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if s.cache == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = s.window
	}

	ctxCache, cancel := context.WithTimeout(ctx, s.redisTimeout)
	defer cancel()

	acquired, err := s.cache.SetNX(ctxCache, key, 1, window)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	var count int64 = 1
	if !acquired {
		count, err = s.cache.Incr(ctxCache, key)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
		}
		// a key that lost its ttl would block forever
		if ttl, ttlErr := s.cache.TTL(ctxCache, key); ttlErr == nil && ttl < 0 {
			_ = s.cache.Expire(ctxCache, key, window)
		}
	}
	if int(count) > max {
		return pkgerrors.New(pkgerrors.TooManyRequests).WithDetail("retry_after_seconds", int(window.Seconds()))
	}
	return nil
}

// Key joins the scope and subject into a limiter key.
func Key(scope string, subject interface{}, route string) string {
	return fmt.Sprintf("prepboard:rate:%s:%v:%s", scope, subject, route)
}
