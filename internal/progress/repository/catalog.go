package repository

import (
	"context"
	"errors"
	"time"

	"prepboard/internal/common/cache"
	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
	"prepboard/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultCatalogCacheTTL      = 30 * time.Minute
	defaultCatalogCacheEmptyTTL = 1 * time.Minute
)

// CatalogRepository reads companies and their problems.
type CatalogRepository interface {
	// ListCompanies returns every company ordered by name, problems included.
	ListCompanies(ctx context.Context) ([]model.Company, error)
	// GetCompanyBySlug returns ErrCompanyNotFound for unknown names.
	GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error)
	// Invalidate drops every cached catalog entry.
	Invalidate(ctx context.Context) error
}

type SQLCatalogRepository struct {
	dbProvider db.Provider
	cache      cache.Cache
	ttl        time.Duration
	emptyTTL   time.Duration
}

func NewCatalogRepository(provider db.Provider, cacheClient cache.Cache) CatalogRepository {
	return NewCatalogRepositoryWithTTL(provider, cacheClient, defaultCatalogCacheTTL, defaultCatalogCacheEmptyTTL)
}

func NewCatalogRepositoryWithTTL(provider db.Provider, cacheClient cache.Cache, ttl, emptyTTL time.Duration) CatalogRepository {
	if ttl <= 0 {
		ttl = defaultCatalogCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultCatalogCacheEmptyTTL
	}
	return &SQLCatalogRepository{
		dbProvider: provider,
		cache:      cacheClient,
		ttl:        ttl,
		emptyTTL:   emptyTTL,
	}
}

const problemColumns = "id, company_id, external_id, title, acceptance, difficulty, frequency, link"

func (r *SQLCatalogRepository) ListCompanies(ctx context.Context) ([]model.Company, error) {
	if r.cache == nil {
		return r.listCompaniesFromDB(ctx)
	}
	return cache.GetWithCached[[]model.Company](
		ctx,
		r.cache,
		catalogCompaniesKey,
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(companies []model.Company) bool { return len(companies) == 0 },
		marshalCompanies,
		unmarshalCompanies,
		r.listCompaniesFromDB,
	)
}

func (r *SQLCatalogRepository) GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error) {
	if r.cache == nil {
		return r.getCompanyFromDB(ctx, slug)
	}
	company, err := cache.GetWithCached[*model.Company](
		ctx,
		r.cache,
		catalogCompanyKey(slug),
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(company *model.Company) bool { return company == nil },
		marshalCompany,
		unmarshalCompany,
		func(ctx context.Context) (*model.Company, error) {
			company, err := r.getCompanyFromDB(ctx, slug)
			if errors.Is(err, ErrCompanyNotFound) {
				return nil, nil
			}
			return company, err
		},
	)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	return company, nil
}

func (r *SQLCatalogRepository) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	removed, err := r.cache.DelByPrefix(ctx, catalogKeyPrefix)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "catalog cache invalidated", zap.Int64("keys", removed))
	return nil
}

func (r *SQLCatalogRepository) listCompaniesFromDB(ctx context.Context) ([]model.Company, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}

	rows, err := querier.Query(ctx, "SELECT id, name FROM companies ORDER BY name")
	if err != nil {
		return nil, err
	}
	var companies []model.Company
	index := make(map[int64]int)
	for rows.Next() {
		var company model.Company
		if err := rows.Scan(&company.ID, &company.Name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[company.ID] = len(companies)
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	problems, err := r.queryProblems(ctx, querier, "SELECT "+problemColumns+" FROM problems ORDER BY company_id, external_id")
	if err != nil {
		return nil, err
	}
	for _, problem := range problems {
		if i, ok := index[problem.CompanyID]; ok {
			companies[i].Problems = append(companies[i].Problems, problem)
		}
	}
	return companies, nil
}

func (r *SQLCatalogRepository) getCompanyFromDB(ctx context.Context, slug string) (*model.Company, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}

	var company model.Company
	if err := querier.QueryRow(ctx, "SELECT id, name FROM companies WHERE name = ?", slug).Scan(&company.ID, &company.Name); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	company.Problems, err = r.queryProblems(ctx, querier,
		"SELECT "+problemColumns+" FROM problems WHERE company_id = ? ORDER BY external_id", company.ID)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *SQLCatalogRepository) queryProblems(ctx context.Context, querier db.Querier, query string, args ...interface{}) ([]model.Problem, error) {
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		var (
			problem    model.Problem
			difficulty string
		)
		if err := rows.Scan(
			&problem.ID,
			&problem.CompanyID,
			&problem.ExternalID,
			&problem.Title,
			&problem.AcceptanceRate,
			&difficulty,
			&problem.Frequency,
			&problem.Link,
		); err != nil {
			return nil, err
		}
		problem.Difficulty = model.Difficulty(difficulty)
		problems = append(problems, problem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return problems, nil
}

func marshalCompanies(companies []model.Company) (string, error) {
	return cache.MarshalCompressed(companies)
}

func unmarshalCompanies(data string) ([]model.Company, error) {
	var companies []model.Company
	if err := cache.UnmarshalCompressed(data, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func marshalCompany(company *model.Company) (string, error) {
	return cache.MarshalCompressed(company)
}

func unmarshalCompany(data string) (*model.Company, error) {
	var company model.Company
	if err := cache.UnmarshalCompressed(data, &company); err != nil {
		return nil, err
	}
	return &company, nil
}
