package repository

import (
	"context"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
)

// CatalogWriter loads companies and problems during seeding.
type CatalogWriter interface {
	// EnsureCompany returns the id of the named company, creating it if missing.
	EnsureCompany(ctx context.Context, tx db.Transaction, name string) (int64, error)
	// InsertProblems skips problems whose (company, external id) already exists
	// and reports how many rows were written.
	InsertProblems(ctx context.Context, tx db.Transaction, companyID int64, problems []model.Problem) (int64, error)
}

type SQLCatalogWriter struct {
	dbProvider db.Provider
}

func NewCatalogWriter(provider db.Provider) CatalogWriter {
	return &SQLCatalogWriter{dbProvider: provider}
}

func (w *SQLCatalogWriter) EnsureCompany(ctx context.Context, tx db.Transaction, name string) (int64, error) {
	dialect, err := db.ProviderDialect(w.dbProvider)
	if err != nil {
		return 0, err
	}
	insert, err := insertIgnore(dialect)
	if err != nil {
		return 0, err
	}
	querier, err := db.GetProviderQuerier(w.dbProvider, tx)
	if err != nil {
		return 0, err
	}

	if _, err := querier.Exec(ctx, insert+" companies (name, created_at) VALUES (?, ?)", name, time.Now().UTC()); err != nil {
		return 0, err
	}
	var id int64
	if err := querier.QueryRow(ctx, "SELECT id FROM companies WHERE name = ?", name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (w *SQLCatalogWriter) InsertProblems(ctx context.Context, tx db.Transaction, companyID int64, problems []model.Problem) (int64, error) {
	dialect, err := db.ProviderDialect(w.dbProvider)
	if err != nil {
		return 0, err
	}
	insert, err := insertIgnore(dialect)
	if err != nil {
		return 0, err
	}
	querier, err := db.GetProviderQuerier(w.dbProvider, tx)
	if err != nil {
		return 0, err
	}

	query := insert + " problems (company_id, external_id, title, acceptance, difficulty, frequency, link) VALUES (?, ?, ?, ?, ?, ?, ?)"
	var inserted int64
	for _, problem := range problems {
		result, err := querier.Exec(ctx, query,
			companyID,
			problem.ExternalID,
			problem.Title,
			problem.AcceptanceRate,
			string(problem.Difficulty),
			problem.Frequency,
			problem.Link,
		)
		if err != nil {
			return inserted, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += affected
	}
	return inserted, nil
}
