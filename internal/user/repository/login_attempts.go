package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"prepboard/internal/common/cache"
)

// LoginAttemptRepository counts failed sign-ins per email and client address.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, email, ip string) (int64, error)
	RecordFailure(ctx context.Context, email, ip string, window time.Duration) (int64, error)
	Clear(ctx context.Context, email, ip string) error
}

type RedisLoginAttemptRepository struct {
	cache cache.Cache
}

func NewLoginAttemptRepository(cacheClient cache.Cache) LoginAttemptRepository {
	return &RedisLoginAttemptRepository{cache: cacheClient}
}

func (r *RedisLoginAttemptRepository) Failures(ctx context.Context, email, ip string) (int64, error) {
	if r.cache == nil {
		return 0, errors.New("cache is nil")
	}
	raw, err := r.cache.Get(ctx, loginFailKey(email, ip))
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (r *RedisLoginAttemptRepository) RecordFailure(ctx context.Context, email, ip string, window time.Duration) (int64, error) {
	if r.cache == nil {
		return 0, errors.New("cache is nil")
	}
	key := loginFailKey(email, ip)
	count, err := r.cache.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if count == 1 && window > 0 {
		if err := r.cache.Expire(ctx, key, window); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (r *RedisLoginAttemptRepository) Clear(ctx context.Context, email, ip string) error {
	if r.cache == nil {
		return errors.New("cache is nil")
	}
	return r.cache.Del(ctx, loginFailKey(email, ip))
}

func loginFailKey(email, ip string) string {
	return loginFailKeyPrefix + strings.ToLower(email) + ":" + ip
}
