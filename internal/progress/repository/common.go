package repository

import (
	"errors"
	"fmt"

	"prepboard/internal/common/db"
)

const (
	catalogKeyPrefix    = "catalog:"
	catalogCompaniesKey = catalogKeyPrefix + "companies"
)

var (
	ErrStatusNotFound  = errors.New("status not found")
	ErrCompanyNotFound = errors.New("company not found")
)

func catalogCompanyKey(slug string) string {
	return catalogKeyPrefix + "company:" + slug
}

// insertIgnore renders the dialect's "insert unless the unique key exists" prefix.
func insertIgnore(dialect db.Dialect) (string, error) {
	switch dialect {
	case db.DialectMySQL:
		return "INSERT IGNORE INTO", nil
	case db.DialectSQLite:
		return "INSERT OR IGNORE INTO", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}
