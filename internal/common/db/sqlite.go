package db

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// NewSQLite opens an embedded SQLite database at path.
// SQLite serialises writers, so the pool is pinned to a single connection.
func NewSQLite(path string) (*SQLDatabase, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return openPool("sqlite", dsn, DialectSQLite, PoolConfig{
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
	})
}
