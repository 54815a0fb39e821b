package repository

import (
	"context"
	"fmt"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
)

// StatusRepository persists per-user problem statuses.
type StatusRepository interface {
	UserExists(ctx context.Context, tx db.Transaction, userID int64) (bool, error)
	ProblemExists(ctx context.Context, tx db.Transaction, problemID int64) (bool, error)
	// Upsert writes status for (userID, problemID) in a single statement.
	Upsert(ctx context.Context, tx db.Transaction, userID, problemID int64, status model.Status, at time.Time) error
	Find(ctx context.Context, tx db.Transaction, userID, problemID int64) (*model.StatusRecord, error)
	FindAllForUser(ctx context.Context, tx db.Transaction, userID int64) (map[int64]model.Status, error)
	FindForCompany(ctx context.Context, tx db.Transaction, userID, companyID int64) (map[int64]model.Status, error)
}

type SQLStatusRepository struct {
	dbProvider db.Provider
}

func NewStatusRepository(provider db.Provider) StatusRepository {
	return &SQLStatusRepository{dbProvider: provider}
}

const (
	mysqlUpsertStatus = "INSERT INTO problem_statuses (user_id, problem_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = VALUES(updated_at)"
	sqliteUpsertStatus = "INSERT INTO problem_statuses (user_id, problem_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
		"ON CONFLICT (user_id, problem_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at"
)

func (r *SQLStatusRepository) UserExists(ctx context.Context, tx db.Transaction, userID int64) (bool, error) {
	return r.exists(ctx, tx, "SELECT 1 FROM users WHERE id = ?", userID)
}

func (r *SQLStatusRepository) ProblemExists(ctx context.Context, tx db.Transaction, problemID int64) (bool, error) {
	return r.exists(ctx, tx, "SELECT 1 FROM problems WHERE id = ?", problemID)
}

func (r *SQLStatusRepository) exists(ctx context.Context, tx db.Transaction, query string, id int64) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var one int
	if err := querier.QueryRow(ctx, query, id).Scan(&one); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLStatusRepository) Upsert(ctx context.Context, tx db.Transaction, userID, problemID int64, status model.Status, at time.Time) error {
	dialect, err := db.ProviderDialect(r.dbProvider)
	if err != nil {
		return err
	}
	var query string
	switch dialect {
	case db.DialectMySQL:
		query = mysqlUpsertStatus
	case db.DialectSQLite:
		query = sqliteUpsertStatus
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	at = at.UTC()
	if _, err := querier.Exec(ctx, query, userID, problemID, string(status), at, at); err != nil {
		return err
	}
	return nil
}

func (r *SQLStatusRepository) Find(ctx context.Context, tx db.Transaction, userID, problemID int64) (*model.StatusRecord, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}

	query := "SELECT user_id, problem_id, status, updated_at FROM problem_statuses WHERE user_id = ? AND problem_id = ?"
	var (
		record    model.StatusRecord
		status    string
		updatedAt db.Time
	)
	if err := querier.QueryRow(ctx, query, userID, problemID).Scan(&record.UserID, &record.ProblemID, &status, &updatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	record.Status = model.Status(status)
	record.UpdatedAt = updatedAt.Time
	return &record, nil
}

func (r *SQLStatusRepository) FindAllForUser(ctx context.Context, tx db.Transaction, userID int64) (map[int64]model.Status, error) {
	return r.collect(ctx, tx, "SELECT problem_id, status FROM problem_statuses WHERE user_id = ?", userID)
}

func (r *SQLStatusRepository) FindForCompany(ctx context.Context, tx db.Transaction, userID, companyID int64) (map[int64]model.Status, error) {
	query := "SELECT s.problem_id, s.status FROM problem_statuses s " +
		"JOIN problems p ON p.id = s.problem_id WHERE s.user_id = ? AND p.company_id = ?"
	return r.collect(ctx, tx, query, userID, companyID)
}

func (r *SQLStatusRepository) collect(ctx context.Context, tx db.Transaction, query string, args ...interface{}) (map[int64]model.Status, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[int64]model.Status)
	for rows.Next() {
		var (
			problemID int64
			status    string
		)
		if err := rows.Scan(&problemID, &status); err != nil {
			return nil, err
		}
		statuses[problemID] = model.Status(status)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}
