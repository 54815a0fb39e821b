package controller_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"prepboard/internal/common/db"
	"prepboard/internal/common/http/middleware"
	"prepboard/internal/progress/controller"
	"prepboard/internal/progress/model"
	"prepboard/internal/progress/repository"
	"prepboard/internal/progress/service"
	"prepboard/internal/testutil"
	pkgerrors "prepboard/pkg/errors"

	"github.com/gin-gonic/gin"
)

type tokenTable map[string]int64

func (t tokenTable) Authenticate(_ context.Context, token string) (int64, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return 0, pkgerrors.New(pkgerrors.TokenInvalid)
}

type harness struct {
	router   *gin.Engine
	headers  map[string]string
	problems map[int64]int64 // external id -> row id
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	seed := map[string][]model.Problem{
		"Acme": {
			{ExternalID: 1, Title: "Two Sum", AcceptanceRate: "49.1%", Difficulty: model.DifficultyEasy, Frequency: 2.0, Link: "https://leetcode.com/problems/two-sum"},
			{ExternalID: 2, Title: "Add Two Numbers", AcceptanceRate: "41.0%", Difficulty: model.DifficultyMedium, Frequency: 9.0, Link: "https://leetcode.com/problems/add-two-numbers"},
			{ExternalID: 3, Title: "Longest Substring", AcceptanceRate: "33.8%", Difficulty: model.DifficultyMedium, Frequency: 5.0, Link: "https://leetcode.com/problems/longest-substring"},
		},
		"Beta Corp": {
			{ExternalID: 4, Title: "Median", AcceptanceRate: "36.0%", Difficulty: model.DifficultyHard, Frequency: 1.0, Link: "https://leetcode.com/problems/median"},
		},
	}
	for name, problems := range seed {
		companyID, err := writer.EnsureCompany(ctx, nil, name)
		if err != nil {
			t.Fatalf("EnsureCompany: %v", err)
		}
		if _, err := writer.InsertProblems(ctx, nil, companyID, problems); err != nil {
			t.Fatalf("InsertProblems: %v", err)
		}
	}

	ids := map[int64]int64{}
	rows, err := database.Query(ctx, "SELECT id, external_id FROM problems")
	if err != nil {
		t.Fatalf("select problems: %v", err)
	}
	for rows.Next() {
		var id, ext int64
		if err := rows.Scan(&id, &ext); err != nil {
			t.Fatalf("scan: %v", err)
		}
		ids[ext] = id
	}
	_ = rows.Close()

	statuses := repository.NewStatusRepository(provider)
	progress := service.NewProgressService(
		repository.NewCatalogRepository(provider, nil),
		statuses,
		service.NewReconciler(provider, statuses),
	)
	handler := controller.NewProgressController(progress)

	router := gin.New()
	api := router.Group("/api/v1", middleware.AuthMiddleware(tokenTable{"ada": userID, "ghost": userID + 100}))
	api.GET("/companies", handler.ListCompanies)
	api.GET("/companies/:slug/problems", handler.GetCompanyProblems)
	api.POST("/progress", handler.SetStatus)
	api.POST("/progress/toggle", handler.ToggleStatus)
	api.GET("/progress/:problemId", handler.GetStatus)

	return &harness{
		router:   router,
		headers:  map[string]string{"Authorization": "Bearer ada"},
		problems: ids,
	}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) (int, testutil.APIResponse) {
	t.Helper()
	rec, resp := testutil.PerformRequest(t, h.router, method, path, body, h.headers)
	return rec.Code, resp
}

func TestSetStatusAndReadBack(t *testing.T) {
	h := newHarness(t)
	problemID := h.problems[1]

	status, resp := h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/progress/%d", problemID), nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var lookup controller.StatusLookupResponse
	testutil.MustUnmarshalJSON(t, resp.Data, &lookup)
	if lookup.Status != model.StatusTodo || lookup.Recorded {
		t.Fatalf("expected unrecorded TODO, got %+v", lookup)
	}

	for _, value := range []string{"DONE", "redo", "DONE"} {
		status, resp = h.do(t, http.MethodPost, "/api/v1/progress", map[string]interface{}{"problem_id": problemID, "status": value})
		if status != http.StatusOK {
			t.Fatalf("set %s: unexpected status %d (%s)", value, status, resp.Message)
		}
	}
	var record controller.StatusResponse
	testutil.MustUnmarshalJSON(t, resp.Data, &record)
	if record.Status != model.StatusDone || record.UpdatedAt == "" {
		t.Fatalf("unexpected record %+v", record)
	}

	_, resp = h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/progress/%d", problemID), nil)
	testutil.MustUnmarshalJSON(t, resp.Data, &lookup)
	if lookup.Status != model.StatusDone || !lookup.Recorded {
		t.Fatalf("expected recorded DONE, got %+v", lookup)
	}
}

func TestSetStatusErrors(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name       string
		body       interface{}
		headers    map[string]string
		wantStatus int
		wantCode   pkgerrors.ErrorCode
	}{
		{name: "invalid status", body: map[string]interface{}{"problem_id": h.problems[1], "status": "MAYBE"}, wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidStatus},
		{name: "missing problem", body: map[string]interface{}{"problem_id": 999999, "status": "DONE"}, wantStatus: http.StatusNotFound, wantCode: pkgerrors.ProblemNotFound},
		{name: "missing problem id", body: map[string]interface{}{"status": "DONE"}, wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "negative problem id", body: map[string]interface{}{"problem_id": -4, "status": "DONE"}, wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "missing status", body: map[string]interface{}{"problem_id": h.problems[1]}, wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "malformed body", body: "{", wantStatus: http.StatusBadRequest, wantCode: pkgerrors.InvalidParams},
		{name: "unknown user", body: map[string]interface{}{"problem_id": h.problems[1], "status": "DONE"}, headers: map[string]string{"Authorization": "Bearer ghost"}, wantStatus: http.StatusNotFound, wantCode: pkgerrors.UserNotFound},
		{name: "no token", body: map[string]interface{}{"problem_id": h.problems[1], "status": "DONE"}, headers: map[string]string{}, wantStatus: http.StatusUnauthorized, wantCode: pkgerrors.Unauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := h.headers
			if tc.headers != nil {
				headers = tc.headers
			}
			rec, resp := testutil.PerformRequest(t, h.router, http.MethodPost, "/api/v1/progress", tc.body, headers)
			if rec.Code != tc.wantStatus || resp.Code != int(tc.wantCode) {
				t.Fatalf("got %d %d (%s)", rec.Code, resp.Code, resp.Message)
			}
		})
	}
}

func TestToggleStatus(t *testing.T) {
	h := newHarness(t)
	problemID := h.problems[2]
	want := []model.Status{model.StatusDone, model.StatusTodo, model.StatusRedo, model.StatusTodo}
	targets := []string{"DONE", "DONE", "REDO", "REDO"}

	for i, target := range targets {
		status, resp := h.do(t, http.MethodPost, "/api/v1/progress/toggle", map[string]interface{}{"problem_id": problemID, "target": target})
		if status != http.StatusOK {
			t.Fatalf("toggle %d: unexpected status %d (%s)", i, status, resp.Message)
		}
		var record controller.StatusResponse
		testutil.MustUnmarshalJSON(t, resp.Data, &record)
		if record.Status != want[i] {
			t.Fatalf("toggle %d: expected %s, got %s", i, want[i], record.Status)
		}
	}

	status, resp := h.do(t, http.MethodPost, "/api/v1/progress/toggle", map[string]interface{}{"problem_id": problemID, "target": "bogus"})
	if status != http.StatusBadRequest || resp.Code != int(pkgerrors.InvalidStatus) {
		t.Fatalf("expected InvalidStatus, got %d %d", status, resp.Code)
	}

	status, resp = h.do(t, http.MethodPost, "/api/v1/progress/toggle", map[string]interface{}{"problem_id": problemID})
	if status != http.StatusBadRequest || resp.Code != int(pkgerrors.InvalidParams) {
		t.Fatalf("expected InvalidParams without target, got %d %d", status, resp.Code)
	}
}

func TestCompanyProblemsFilterAndSort(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/progress", map[string]interface{}{"problem_id": h.problems[1], "status": "DONE"})
	h.do(t, http.MethodPost, "/api/v1/progress", map[string]interface{}{"problem_id": h.problems[3], "status": "REDO"})

	cases := []struct {
		query   string
		wantIDs []int64
	}{
		{query: "", wantIDs: []int64{1, 2, 3}},
		{query: "?sort=frequency", wantIDs: []int64{2, 3, 1}},
		{query: "?filter=todo", wantIDs: []int64{2}},
		{query: "?filter=REDO&sort=frequency", wantIDs: []int64{3}},
		{query: "?filter=ALL&sort=id", wantIDs: []int64{1, 2, 3}},
	}
	for _, tc := range cases {
		status, resp := h.do(t, http.MethodGet, "/api/v1/companies/Acme/problems"+tc.query, nil)
		if status != http.StatusOK {
			t.Fatalf("%q: unexpected status %d (%s)", tc.query, status, resp.Message)
		}
		var detail controller.CompanyDetailResponse
		testutil.MustUnmarshalJSON(t, resp.Data, &detail)
		if len(detail.Problems) != len(tc.wantIDs) {
			t.Fatalf("%q: expected %d problems, got %d", tc.query, len(tc.wantIDs), len(detail.Problems))
		}
		for i, ext := range tc.wantIDs {
			if detail.Problems[i].ExternalID != ext {
				t.Fatalf("%q: position %d expected %d, got %d", tc.query, i, ext, detail.Problems[i].ExternalID)
			}
		}
		if detail.Stats != (model.Stats{Total: 3, Completed: 1, Redo: 1, Todo: 1, Progress: 33}) {
			t.Fatalf("%q: stats must cover the whole company, got %+v", tc.query, detail.Stats)
		}
	}

	status, resp := h.do(t, http.MethodGet, "/api/v1/companies/Acme/problems?filter=DONE", nil)
	if status != http.StatusBadRequest || resp.Code != int(pkgerrors.InvalidFilter) {
		t.Fatalf("expected InvalidFilter, got %d %d", status, resp.Code)
	}
	status, resp = h.do(t, http.MethodGet, "/api/v1/companies/Acme/problems?sort=title", nil)
	if status != http.StatusBadRequest || resp.Code != int(pkgerrors.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %d %d", status, resp.Code)
	}
	status, resp = h.do(t, http.MethodGet, "/api/v1/companies/Nowhere/problems", nil)
	if status != http.StatusNotFound || resp.Code != int(pkgerrors.CompanyNotFound) {
		t.Fatalf("expected CompanyNotFound, got %d %d", status, resp.Code)
	}
}

func TestListCompanies(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/progress", map[string]interface{}{"problem_id": h.problems[4], "status": "DONE"})

	status, resp := h.do(t, http.MethodGet, "/api/v1/companies", nil)
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var overview model.Overview
	testutil.MustUnmarshalJSON(t, resp.Data, &overview)
	if len(overview.Companies) != 2 || overview.Companies[0].Name != "Acme" || overview.Companies[1].Name != "Beta Corp" {
		t.Fatalf("unexpected companies %+v", overview.Companies)
	}
	if overview.Companies[1].Stats.Progress != 100 || overview.Companies[0].Stats.Progress != 0 {
		t.Fatalf("unexpected per-company stats %+v", overview.Companies)
	}
	if overview.Global != (model.Stats{Total: 4, Completed: 1, Redo: 0, Todo: 3, Progress: 25}) {
		t.Fatalf("unexpected global stats %+v", overview.Global)
	}
}

func TestGetStatusBadID(t *testing.T) {
	h := newHarness(t)
	status, resp := h.do(t, http.MethodGet, "/api/v1/progress/abc", nil)
	if status != http.StatusBadRequest || resp.Code != int(pkgerrors.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %d %d", status, resp.Code)
	}
}
