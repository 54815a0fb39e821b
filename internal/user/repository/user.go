package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"prepboard/internal/common/cache"
	"prepboard/internal/common/db"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, user *User) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error)
	GetByEmail(ctx context.Context, tx db.Transaction, email string) (*User, error)
}

type SQLUserRepository struct {
	dbProvider db.Provider
	cache      cache.Cache
	ttl        time.Duration
	emptyTTL   time.Duration
}

const (
	defaultUserCacheTTL      = 30 * time.Minute
	defaultUserCacheEmptyTTL = 5 * time.Minute
)

func NewUserRepository(provider db.Provider, cacheClient cache.Cache) UserRepository {
	return NewUserRepositoryWithTTL(provider, cacheClient, defaultUserCacheTTL, defaultUserCacheEmptyTTL)
}

func NewUserRepositoryWithTTL(provider db.Provider, cacheClient cache.Cache, ttl, emptyTTL time.Duration) UserRepository {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultUserCacheEmptyTTL
	}
	return &SQLUserRepository{
		dbProvider: provider,
		cache:      cacheClient,
		ttl:        ttl,
		emptyTTL:   emptyTTL,
	}
}

const userColumns = "id, email, password_hash, created_at"

func (r *SQLUserRepository) Create(ctx context.Context, tx db.Transaction, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	result, err := querier.Exec(ctx, "INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			if strings.Contains(strings.ToLower(key), "email") {
				return 0, ErrEmailExists
			}
			return 0, fmt.Errorf("duplicate key %q: %w", key, err)
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	user.ID = id

	// a miss may have been cached for this email before signup
	if r.cache != nil {
		_ = r.cache.Del(ctx, userEmailKey(user.Email))
	}
	return id, nil
}

func (r *SQLUserRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	if r.cache == nil || tx != nil {
		return r.getFromDB(ctx, tx, "id", id)
	}
	return r.getCached(ctx, userInfoKey(id), func(ctx context.Context) (*User, error) {
		return r.getFromDB(ctx, nil, "id", id)
	})
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, tx db.Transaction, email string) (*User, error) {
	if r.cache == nil || tx != nil {
		return r.getFromDB(ctx, tx, "email", email)
	}
	return r.getCached(ctx, userEmailKey(email), func(ctx context.Context) (*User, error) {
		return r.getFromDB(ctx, nil, "email", email)
	})
}

func (r *SQLUserRepository) getCached(ctx context.Context, key string, load func(context.Context) (*User, error)) (*User, error) {
	user, err := cache.GetWithCached[*User](
		ctx,
		r.cache,
		key,
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(user *User) bool { return user == nil },
		marshalUser,
		unmarshalUser,
		func(ctx context.Context) (*User, error) {
			user, err := load(ctx)
			if errors.Is(err, ErrUserNotFound) {
				return nil, nil
			}
			return user, err
		},
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *SQLUserRepository) getFromDB(ctx context.Context, tx db.Transaction, column string, value interface{}) (*User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	var (
		user      User
		createdAt db.Time
	)
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"
	if err := querier.QueryRow(ctx, query, value).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.CreatedAt = createdAt.Time
	return &user, nil
}

func userInfoKey(id int64) string {
	return fmt.Sprintf("%s%d", userInfoKeyPrefix, id)
}

func userEmailKey(email string) string {
	return userEmailKeyPrefix + strings.ToLower(email)
}

func marshalUser(user *User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalUser(data string) (*User, error) {
	var user User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
