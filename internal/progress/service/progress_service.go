package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"prepboard/internal/progress/model"
	"prepboard/internal/progress/repository"
	pkgerrors "prepboard/pkg/errors"
	"prepboard/pkg/utils/logger"

	"go.uber.org/zap"
)

// ProgressService joins the catalog with a user's statuses.
type ProgressService struct {
	catalog    repository.CatalogRepository
	statuses   repository.StatusRepository
	reconciler *Reconciler
}

// NewProgressService creates a ProgressService.
func NewProgressService(catalog repository.CatalogRepository, statuses repository.StatusRepository, reconciler *Reconciler) *ProgressService {
	return &ProgressService{
		catalog:    catalog,
		statuses:   statuses,
		reconciler: reconciler,
	}
}

// ListCompanies returns every company, sorted by name, with the user's stats
// per company and across the whole catalog.
func (s *ProgressService) ListCompanies(ctx context.Context, userID int64) (model.Overview, error) {
	companies, err := s.catalog.ListCompanies(ctx)
	if err != nil {
		return model.Overview{}, pkgerrors.Wrap(fmt.Errorf("list companies failed: %w", err), pkgerrors.CatalogLoadFailed)
	}
	statuses, err := s.statuses.FindAllForUser(ctx, nil, userID)
	if err != nil {
		return model.Overview{}, pkgerrors.Wrap(fmt.Errorf("load statuses failed: %w", err), pkgerrors.DatabaseError)
	}

	sort.SliceStable(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })

	overview := model.Overview{Companies: make([]model.CompanySummary, 0, len(companies))}
	var all []model.ProblemStatus
	for _, company := range companies {
		annotated := Annotate(company.Problems, statuses)
		all = append(all, annotated...)
		overview.Companies = append(overview.Companies, model.CompanySummary{
			ID:           company.ID,
			Name:         company.Name,
			ProblemCount: len(company.Problems),
			Stats:        ComputeStats(annotated),
		})
	}
	overview.Global = ComputeStats(all)
	return overview, nil
}

// GetCompanyProblems returns one company's problems filtered and sorted for
// display. Stats always cover the whole company regardless of filter.
func (s *ProgressService) GetCompanyProblems(ctx context.Context, userID int64, slug string, filter model.Filter, sortByFrequency bool) (model.CompanyDetail, error) {
	if slug == "" {
		return model.CompanyDetail{}, pkgerrors.ValidationError("slug", "company slug is required")
	}

	company, err := s.catalog.GetCompanyBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, repository.ErrCompanyNotFound) {
			return model.CompanyDetail{}, pkgerrors.New(pkgerrors.CompanyNotFound).WithDetail("slug", slug)
		}
		return model.CompanyDetail{}, pkgerrors.Wrap(fmt.Errorf("get company failed: %w", err), pkgerrors.CatalogLoadFailed)
	}

	statuses, err := s.statuses.FindForCompany(ctx, nil, userID, company.ID)
	if err != nil {
		return model.CompanyDetail{}, pkgerrors.Wrap(fmt.Errorf("load statuses failed: %w", err), pkgerrors.DatabaseError)
	}

	annotated := Annotate(company.Problems, statuses)
	return model.CompanyDetail{
		ID:       company.ID,
		Name:     company.Name,
		Stats:    ComputeStats(annotated),
		Problems: View(annotated, filter, sortByFrequency),
	}, nil
}

// SetStatus overwrites a status through the Reconciler.
func (s *ProgressService) SetStatus(ctx context.Context, userID, problemID int64, status string) (model.StatusRecord, error) {
	record, err := s.reconciler.SetStatus(ctx, userID, problemID, status)
	if err != nil {
		return model.StatusRecord{}, err
	}
	logger.Info(ctx, "problem status updated",
		zap.Int64("problem_id", record.ProblemID),
		zap.String("status", string(record.Status)),
	)
	return record, nil
}

// ToggleStatus applies NextStatus to the stored status and writes the result.
func (s *ProgressService) ToggleStatus(ctx context.Context, userID, problemID int64, rawTarget string) (model.StatusRecord, error) {
	target, err := model.ParseStatus(rawTarget)
	if err != nil {
		return model.StatusRecord{}, err
	}
	current, err := s.reconciler.GetStatus(ctx, userID, problemID)
	if err != nil {
		return model.StatusRecord{}, err
	}
	return s.SetStatus(ctx, userID, problemID, string(NextStatus(current, target)))
}

// GetStatus returns the stored status of one problem.
func (s *ProgressService) GetStatus(ctx context.Context, userID, problemID int64) (model.NullStatus, error) {
	return s.reconciler.GetStatus(ctx, userID, problemID)
}
