package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
	"prepboard/internal/progress/repository"
	pkgerrors "prepboard/pkg/errors"
)

// Reconciler owns every write to a user's problem status.
type Reconciler struct {
	dbProvider db.Provider
	statuses   repository.StatusRepository
	now        func() time.Time
}

// NewReconciler creates a Reconciler. A nil provider runs store calls
// without a transaction.
func NewReconciler(provider db.Provider, statuses repository.StatusRepository) *Reconciler {
	return &Reconciler{
		dbProvider: provider,
		statuses:   statuses,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus overwrites the status of (userID, problemID) with rawStatus and
// returns the persisted record. Repeating the call with the same arguments
// leaves the stored status unchanged.
func (r *Reconciler) SetStatus(ctx context.Context, userID, problemID int64, rawStatus string) (model.StatusRecord, error) {
	if err := validateIDs(userID, problemID); err != nil {
		return model.StatusRecord{}, err
	}
	status, err := model.ParseStatus(rawStatus)
	if err != nil {
		return model.StatusRecord{}, err
	}

	var record model.StatusRecord
	err = r.withTransaction(ctx, func(tx db.Transaction) error {
		userOK, err := r.statuses.UserExists(ctx, tx, userID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("check user failed: %w", err), pkgerrors.DatabaseError)
		}
		if !userOK {
			return pkgerrors.New(pkgerrors.UserNotFound).WithDetail("user_id", userID)
		}

		problemOK, err := r.statuses.ProblemExists(ctx, tx, problemID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("check problem failed: %w", err), pkgerrors.DatabaseError)
		}
		if !problemOK {
			return pkgerrors.New(pkgerrors.ProblemNotFound).WithDetail("problem_id", problemID)
		}

		if err := r.statuses.Upsert(ctx, tx, userID, problemID, status, r.now()); err != nil {
			return pkgerrors.Wrap(fmt.Errorf("upsert status failed: %w", err), pkgerrors.StatusUpdateFailed)
		}

		stored, err := r.statuses.Find(ctx, tx, userID, problemID)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("read back status failed: %w", err), pkgerrors.DatabaseError)
		}
		record = *stored
		return nil
	})
	if err != nil {
		return model.StatusRecord{}, err
	}
	return record, nil
}

// GetStatus returns the stored status, or an invalid NullStatus when the
// user never marked the problem.
func (r *Reconciler) GetStatus(ctx context.Context, userID, problemID int64) (model.NullStatus, error) {
	if err := validateIDs(userID, problemID); err != nil {
		return model.NullStatus{}, err
	}

	record, err := r.statuses.Find(ctx, nil, userID, problemID)
	if err != nil {
		if stderrors.Is(err, repository.ErrStatusNotFound) {
			return model.NullStatus{}, nil
		}
		return model.NullStatus{}, pkgerrors.Wrap(fmt.Errorf("find status failed: %w", err), pkgerrors.DatabaseError)
	}
	return model.Known(record.Status), nil
}

func (r *Reconciler) withTransaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(r.dbProvider)
	if err != nil {
		return fn(nil)
	}
	if err := database.Transaction(ctx, fn); err != nil {
		var coded *pkgerrors.Error
		if stderrors.As(err, &coded) {
			return err
		}
		return pkgerrors.Wrap(fmt.Errorf("transaction failed: %w", err), pkgerrors.TransactionFailed)
	}
	return nil
}

func validateIDs(userID, problemID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("user id must be positive").WithDetail("user_id", userID)
	}
	if problemID <= 0 {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("problem id must be positive").WithDetail("problem_id", problemID)
	}
	return nil
}
