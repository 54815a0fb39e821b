package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prepboard/internal/common/cache"
	"prepboard/internal/common/db"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenDatabase(t *testing.T) {
	if _, err := OpenDatabase(DatabaseConfig{Driver: DriverSQLite}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := OpenDatabase(DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil || !strings.Contains(err.Error(), "oracle") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}

	database, err := OpenDatabase(DatabaseConfig{DSN: filepath.Join(t.TempDir(), "board.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()
	if database.Dialect() != db.DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %v", database.Dialect())
	}
}

func TestInitWithSchemaAndRedis(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	deps, err := Init(ctx,
		DatabaseConfig{Driver: "SQLite", DSN: filepath.Join(t.TempDir(), "board.db"), EnsureSchema: true},
		&cache.RedisConfig{Addr: server.Addr(), PoolSize: 3},
	)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer deps.Close()

	if deps.CacheOrNil() == nil {
		t.Fatalf("expected redis cache")
	}
	if _, err := deps.Database.Exec(ctx, "SELECT COUNT(*) FROM companies"); err != nil {
		t.Fatalf("expected schema to exist: %v", err)
	}
	if current, err := db.CurrentDatabase(deps.Provider); err != nil || current != deps.Database {
		t.Fatalf("expected provider to expose the database, got %v", err)
	}
}

func TestInitWithoutRedis(t *testing.T) {
	deps, err := Init(context.Background(), DatabaseConfig{DSN: filepath.Join(t.TempDir(), "board.db")}, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if deps.CacheOrNil() != nil {
		t.Fatalf("expected nil cache interface")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Init(ctx, DatabaseConfig{DSN: "unused"}, nil); err == nil {
		t.Fatalf("expected canceled context error")
	}
}

func TestMergeRedisDefaults(t *testing.T) {
	merged := mergeRedisDefaults(&cache.RedisConfig{Addr: "localhost:6379", DB: 2, PoolSize: 50, DialTimeout: time.Second})
	if merged.Addr != "localhost:6379" || merged.DB != 2 || merged.PoolSize != 50 || merged.DialTimeout != time.Second {
		t.Fatalf("expected overrides to be kept, got %+v", merged)
	}
	if merged.MaxRetries != cache.DefaultRedisConfig().MaxRetries {
		t.Fatalf("expected default retries, got %d", merged.MaxRetries)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "driver: mysql\ndsn: user:pass@tcp(localhost:3306)/prep\nensureSchema: true\npool:\n  maxOpenConnections: 7\n  connMaxLifetime: 2m\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var cfg DatabaseConfig
	if err := LoadYAML(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Driver != DriverMySQL || !cfg.EnsureSchema || cfg.Pool.MaxOpenConnections != 7 || cfg.Pool.ConnMaxLifetime != 2*time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
