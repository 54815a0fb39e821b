package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/repository"
	"prepboard/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Invalidator drops cached catalog reads once new rows are written.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// FileSummary reports the outcome of one CSV file.
type FileSummary struct {
	Key       string
	Company   string
	CompanyID int64
	Parsed    int
	Inserted  int64
	Skipped   map[SkipReason]int
	Err       error
}

// Summary reports a whole run.
type Summary struct {
	Files    []FileSummary
	Inserted int64
	Failed   int
	Duration time.Duration
}

// Seeder loads every CSV of a Source into the catalog tables.
type Seeder struct {
	dbProvider  db.Provider
	writer      repository.CatalogWriter
	invalidator Invalidator
	concurrency int
}

// NewSeeder creates a Seeder. invalidator may be nil.
func NewSeeder(provider db.Provider, writer repository.CatalogWriter, invalidator Invalidator, concurrency int) *Seeder {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Seeder{
		dbProvider:  provider,
		writer:      writer,
		invalidator: invalidator,
		concurrency: concurrency,
	}
}

// Run fetches and parses files concurrently, then writes each company in its
// own transaction. A file that fails is reported and the rest still load; the
// returned error joins every per-file failure.
func (s *Seeder) Run(ctx context.Context, source Source) (Summary, error) {
	start := time.Now()
	keys, err := source.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list sources failed: %w", err)
	}

	files := make([]FileSummary, len(keys))
	parsed := make([]ParseResult, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		i, key := i, key
		files[i] = FileSummary{Key: key, Company: CompanyName(key)}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result, err := s.fetch(gctx, source, key)
			if err != nil {
				files[i].Err = err
				return nil
			}
			parsed[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{}
	var errs []error
	for i := range files {
		file := &files[i]
		if file.Err == nil && file.Company == "" {
			file.Err = fmt.Errorf("cannot derive company name")
		}
		if file.Err == nil {
			file.Parsed = len(parsed[i].Problems)
			file.Skipped = parsed[i].Skipped
			file.CompanyID, file.Inserted, file.Err = s.store(ctx, file.Company, parsed[i])
		}

		if file.Err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", file.Key, file.Err))
			logger.Error(ctx, "seed file failed", zap.String("file", file.Key), zap.Error(file.Err))
			continue
		}
		summary.Inserted += file.Inserted
		logger.Info(ctx, "seeded company",
			zap.String("file", file.Key),
			zap.String("company", file.Company),
			zap.Int("parsed", file.Parsed),
			zap.Int64("inserted", file.Inserted),
			zap.Int("skipped", parsed[i].SkippedTotal()),
		)
	}
	summary.Files = files

	if s.invalidator != nil && summary.Inserted > 0 {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("invalidate catalog cache failed: %w", err))
		}
	}
	summary.Duration = time.Since(start)
	return summary, errors.Join(errs...)
}

func (s *Seeder) fetch(ctx context.Context, source Source, key string) (ParseResult, error) {
	reader, err := source.Open(ctx, key)
	if err != nil {
		return ParseResult{}, fmt.Errorf("open failed: %w", err)
	}
	defer reader.Close()
	return ParseProblems(reader)
}

func (s *Seeder) store(ctx context.Context, company string, result ParseResult) (int64, int64, error) {
	var companyID, inserted int64
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		var err error
		companyID, err = s.writer.EnsureCompany(ctx, tx, company)
		if err != nil {
			return fmt.Errorf("ensure company failed: %w", err)
		}
		inserted, err = s.writer.InsertProblems(ctx, tx, companyID, result.Problems)
		if err != nil {
			return fmt.Errorf("insert problems failed: %w", err)
		}
		return nil
	})
	return companyID, inserted, err
}

func (s *Seeder) withTransaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(s.dbProvider)
	if err != nil {
		return fn(nil)
	}
	return database.Transaction(ctx, fn)
}
