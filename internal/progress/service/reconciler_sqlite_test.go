package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/progress/model"
	"prepboard/internal/progress/repository"
	"prepboard/internal/progress/service"
	"prepboard/internal/testutil"
)

func TestSetStatusConcurrentWritersSQLite(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewSQLite(t)
	provider := db.NewStaticProvider(database)

	result, err := database.Exec(ctx, "INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		"ada@example.com", "hash", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userID, _ := result.LastInsertId()

	writer := repository.NewCatalogWriter(provider)
	companyID, err := writer.EnsureCompany(ctx, nil, "Acme")
	if err != nil {
		t.Fatalf("EnsureCompany: %v", err)
	}
	if _, err := writer.InsertProblems(ctx, nil, companyID, []model.Problem{
		{ExternalID: 1, Title: "Two Sum", Difficulty: model.DifficultyEasy, Frequency: 9.25, Link: "https://leetcode.com/problems/two-sum"},
	}); err != nil {
		t.Fatalf("InsertProblems: %v", err)
	}
	var problemID int64
	if err := database.QueryRow(ctx, "SELECT id FROM problems WHERE company_id = ?", companyID).Scan(&problemID); err != nil {
		t.Fatalf("select problem: %v", err)
	}

	reconciler := service.NewReconciler(provider, repository.NewStatusRepository(provider))
	statuses := []string{"TODO", "DONE", "REDO"}

	var wg sync.WaitGroup
	errCh := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			if _, err := reconciler.SetStatus(ctx, userID, problemID, status); err != nil {
				errCh <- err
			}
		}(statuses[i%len(statuses)])
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SetStatus: %v", err)
	}

	if _, err := reconciler.SetStatus(ctx, userID, problemID, "DONE"); err != nil {
		t.Fatalf("final SetStatus: %v", err)
	}

	var rows int
	if err := database.QueryRow(ctx, "SELECT COUNT(*) FROM problem_statuses WHERE user_id = ? AND problem_id = ?", userID, problemID).Scan(&rows); err != nil {
		t.Fatalf("count statuses: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	got, err := reconciler.GetStatus(ctx, userID, problemID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !got.Valid || got.Status != model.StatusDone {
		t.Fatalf("GetStatus() = %+v, want DONE", got)
	}
}
