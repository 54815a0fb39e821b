package service_test

import (
	"context"
	"errors"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
	"prepboard/internal/progress/repository"
)

type statusKey struct {
	userID    int64
	problemID int64
}

type fakeStatusRepo struct {
	users    map[int64]bool
	problems map[int64]int64 // problem id -> company id
	records  map[statusKey]model.StatusRecord

	upserts    int
	failWith   error
	failOnRead error
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		users:    make(map[int64]bool),
		problems: make(map[int64]int64),
		records:  make(map[statusKey]model.StatusRecord),
	}
}

func (r *fakeStatusRepo) UserExists(ctx context.Context, tx db.Transaction, userID int64) (bool, error) {
	return r.users[userID], nil
}

func (r *fakeStatusRepo) ProblemExists(ctx context.Context, tx db.Transaction, problemID int64) (bool, error) {
	_, ok := r.problems[problemID]
	return ok, nil
}

func (r *fakeStatusRepo) Upsert(ctx context.Context, tx db.Transaction, userID, problemID int64, status model.Status, at time.Time) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.upserts++
	r.records[statusKey{userID, problemID}] = model.StatusRecord{
		UserID:    userID,
		ProblemID: problemID,
		Status:    status,
		UpdatedAt: at,
	}
	return nil
}

func (r *fakeStatusRepo) Find(ctx context.Context, tx db.Transaction, userID, problemID int64) (*model.StatusRecord, error) {
	if r.failOnRead != nil {
		return nil, r.failOnRead
	}
	record, ok := r.records[statusKey{userID, problemID}]
	if !ok {
		return nil, repository.ErrStatusNotFound
	}
	clone := record
	return &clone, nil
}

func (r *fakeStatusRepo) FindAllForUser(ctx context.Context, tx db.Transaction, userID int64) (map[int64]model.Status, error) {
	if r.failOnRead != nil {
		return nil, r.failOnRead
	}
	out := make(map[int64]model.Status)
	for key, record := range r.records {
		if key.userID == userID {
			out[key.problemID] = record.Status
		}
	}
	return out, nil
}

func (r *fakeStatusRepo) FindForCompany(ctx context.Context, tx db.Transaction, userID, companyID int64) (map[int64]model.Status, error) {
	all, err := r.FindAllForUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	for problemID := range all {
		if r.problems[problemID] != companyID {
			delete(all, problemID)
		}
	}
	return all, nil
}

type fakeCatalog struct {
	companies []model.Company
	err       error
}

func (c *fakeCatalog) ListCompanies(ctx context.Context) ([]model.Company, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]model.Company, len(c.companies))
	copy(out, c.companies)
	return out, nil
}

func (c *fakeCatalog) GetCompanyBySlug(ctx context.Context, slug string) (*model.Company, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, company := range c.companies {
		if company.Name == slug {
			clone := company
			return &clone, nil
		}
	}
	return nil, repository.ErrCompanyNotFound
}

func (c *fakeCatalog) Invalidate(ctx context.Context) error {
	return nil
}

var errStore = errors.New("store unavailable")

func problem(id, externalID int64, frequency float64) model.Problem {
	return model.Problem{ID: id, ExternalID: externalID, Title: "p", Difficulty: model.DifficultyEasy, Frequency: frequency}
}

func annotated(p model.Problem, status model.NullStatus) model.ProblemStatus {
	return model.ProblemStatus{Problem: p, Status: status}
}
