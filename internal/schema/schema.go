// Package schema creates the relational tables used by prepboard.
package schema

import (
	"context"
	"fmt"

	"prepboard/internal/common/db"
)

var mysqlTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(320) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		UNIQUE KEY uk_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS companies (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		UNIQUE KEY uk_companies_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS problems (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		company_id BIGINT NOT NULL,
		external_id BIGINT NOT NULL,
		title VARCHAR(512) NOT NULL,
		acceptance VARCHAR(32) NOT NULL DEFAULT '',
		difficulty VARCHAR(16) NOT NULL,
		frequency DOUBLE NOT NULL DEFAULT 0,
		link VARCHAR(1024) NOT NULL,
		UNIQUE KEY uk_problems_company_external (company_id, external_id),
		CONSTRAINT fk_problems_company FOREIGN KEY (company_id) REFERENCES companies (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS problem_statuses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		problem_id BIGINT NOT NULL,
		status VARCHAR(8) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uk_status_user_problem (user_id, problem_id),
		CONSTRAINT fk_status_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_status_problem FOREIGN KEY (problem_id) REFERENCES problems (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL REFERENCES companies (id) ON DELETE CASCADE,
		external_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		acceptance TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL,
		frequency REAL NOT NULL DEFAULT 0,
		link TEXT NOT NULL,
		UNIQUE (company_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS problem_statuses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		problem_id INTEGER NOT NULL REFERENCES problems (id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, problem_id)
	)`,
}

// Ensure creates every table that does not exist yet.
func Ensure(ctx context.Context, database db.Database) error {
	var statements []string
	switch database.Dialect() {
	case db.DialectMySQL:
		statements = mysqlTables
	case db.DialectSQLite:
		statements = sqliteTables
	default:
		return fmt.Errorf("unsupported dialect %q", database.Dialect())
	}

	for _, stmt := range statements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema failed: %w", err)
		}
	}
	return nil
}
