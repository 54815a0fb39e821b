// Package bootstrap opens the shared infrastructure used by the prepboard
// binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"prepboard/internal/common/cache"
	"prepboard/internal/common/db"
	"prepboard/internal/schema"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DatabaseConfig selects the SQL backend. DSN is a MySQL DSN or a SQLite
// file path.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	Pool         db.PoolConfig `yaml:"pool"`
	EnsureSchema bool          `yaml:"ensureSchema"`
}

// Dependencies contains initialized infrastructure.
type Dependencies struct {
	Database *db.SQLDatabase
	Provider *db.StaticProvider
	// Cache is nil when redis is not configured.
	Cache *cache.RedisCache
}

// Close releases initialized resources.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis cache failed: %w", err))
		}
	}
	if d.Database != nil {
		if err := d.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CacheOrNil returns the cache as an interface, keeping a missing redis a
// true nil.
func (d *Dependencies) CacheOrNil() cache.Cache {
	if d == nil || d.Cache == nil {
		return nil
	}
	return d.Cache
}

// Init opens the database and, when redis.Addr is set, the redis cache.
func Init(ctx context.Context, dbCfg DatabaseConfig, redisCfg *cache.RedisConfig) (*Dependencies, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before initialization: %w", err)
	}

	database, err := OpenDatabase(dbCfg)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}
	if dbCfg.EnsureSchema {
		if err := schema.Ensure(ctx, database); err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	deps := &Dependencies{Database: database, Provider: db.NewStaticProvider(database)}
	if redisCfg == nil || redisCfg.Addr == "" {
		return deps, nil
	}

	redisCache, err := cache.NewRedisCacheWithConfig(mergeRedisDefaults(redisCfg))
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init redis failed: %w", err)
	}
	deps.Cache = redisCache
	return deps, nil
}

// OpenDatabase opens the configured SQL backend without touching the schema.
func OpenDatabase(cfg DatabaseConfig) (*db.SQLDatabase, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("database dsn cannot be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMySQL:
		return db.NewMySQLWithConfig(&db.MySQLConfig{DSN: cfg.DSN, Pool: cfg.Pool})
	case DriverSQLite, "":
		return db.NewSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// LoadYAML decodes a YAML file into out.
func LoadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func mergeRedisDefaults(cfg *cache.RedisConfig) *cache.RedisConfig {
	merged := cache.DefaultRedisConfig()
	merged.Addr = cfg.Addr
	merged.Password = cfg.Password
	merged.DB = cfg.DB
	if cfg.MaxRetries != 0 {
		merged.MaxRetries = cfg.MaxRetries
	}
	if cfg.MinRetryBackoff != 0 {
		merged.MinRetryBackoff = cfg.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff != 0 {
		merged.MaxRetryBackoff = cfg.MaxRetryBackoff
	}
	if cfg.DialTimeout != 0 {
		merged.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout != 0 {
		merged.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout != 0 {
		merged.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.PoolSize != 0 {
		merged.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns != 0 {
		merged.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.PoolTimeout != 0 {
		merged.PoolTimeout = cfg.PoolTimeout
	}
	if cfg.ConnMaxIdleTime != 0 {
		merged.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime != 0 {
		merged.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	return merged
}
