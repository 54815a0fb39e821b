package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"prepboard/internal/common/http/middleware"
	"prepboard/internal/progress/model"
	pkgerrors "prepboard/pkg/errors"
	"prepboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ProgressAPI is the service surface behind the progress endpoints.
type ProgressAPI interface {
	ListCompanies(ctx context.Context, userID int64) (model.Overview, error)
	GetCompanyProblems(ctx context.Context, userID int64, slug string, filter model.Filter, sortByFrequency bool) (model.CompanyDetail, error)
	SetStatus(ctx context.Context, userID, problemID int64, status string) (model.StatusRecord, error)
	ToggleStatus(ctx context.Context, userID, problemID int64, target string) (model.StatusRecord, error)
	GetStatus(ctx context.Context, userID, problemID int64) (model.NullStatus, error)
}

// ProgressController serves the company overview and status endpoints.
type ProgressController struct {
	progress ProgressAPI
}

func NewProgressController(progress ProgressAPI) *ProgressController {
	return &ProgressController{progress: progress}
}

// ListCompanies handles GET /companies.
func (h *ProgressController) ListCompanies(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	overview, err := h.progress.ListCompanies(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if overview.Companies == nil {
		overview.Companies = []model.CompanySummary{}
	}
	response.Success(c, overview)
}

// GetCompanyProblems handles GET /companies/:slug/problems.
func (h *ProgressController) GetCompanyProblems(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	filter, err := model.ParseFilter(c.Query("filter"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sortByFrequency, err := parseSort(c.Query("sort"))
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.progress.GetCompanyProblems(c.Request.Context(), userID, strings.TrimSpace(c.Param("slug")), filter, sortByFrequency)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toCompanyDetailResponse(detail))
}

// SetStatus handles POST /progress.
func (h *ProgressController) SetStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	record, err := h.progress.SetStatus(c.Request.Context(), userID, req.ProblemID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toStatusResponse(record))
}

// ToggleStatus handles POST /progress/toggle.
func (h *ProgressController) ToggleStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	record, err := h.progress.ToggleStatus(c.Request.Context(), userID, req.ProblemID, req.Target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toStatusResponse(record))
}

// GetStatus handles GET /progress/:problemId.
func (h *ProgressController) GetStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	problemID, err := strconv.ParseInt(c.Param("problemId"), 10, 64)
	if err != nil || problemID <= 0 {
		response.BadRequest(c, "Invalid problem id")
		return
	}
	status, err := h.progress.GetStatus(c.Request.Context(), userID, problemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, StatusLookupResponse{
		ProblemID: problemID,
		Status:    status.OrTodo(),
		Recorded:  status.Valid,
	})
}

func requireUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "sign in required")
		return 0, false
	}
	return userID, true
}

func parseSort(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "id":
		return false, nil
	case "frequency":
		return true, nil
	default:
		return false, pkgerrors.Newf(pkgerrors.InvalidParams, "sort must be frequency or id, got %q", raw).
			WithDetail("sort", raw)
	}
}

// SetStatusRequest defines the status write payload.
type SetStatusRequest struct {
	ProblemID int64  `json:"problem_id" binding:"required,gt=0"`
	Status    string `json:"status" binding:"required"`
}

// ToggleStatusRequest defines the toggle payload.
type ToggleStatusRequest struct {
	ProblemID int64  `json:"problem_id" binding:"required,gt=0"`
	Target    string `json:"target" binding:"required"`
}

// StatusResponse is a stored status.
type StatusResponse struct {
	ProblemID int64        `json:"problem_id"`
	Status    model.Status `json:"status"`
	UpdatedAt string       `json:"updated_at"`
}

// StatusLookupResponse reports the effective status of one problem.
type StatusLookupResponse struct {
	ProblemID int64        `json:"problem_id"`
	Status    model.Status `json:"status"`
	Recorded  bool         `json:"recorded"`
}

// ProblemView is one row of a company's problem table.
type ProblemView struct {
	model.Problem
	Status   model.Status `json:"status"`
	Recorded bool         `json:"recorded"`
}

// CompanyDetailResponse defines the company page payload.
type CompanyDetailResponse struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Stats    model.Stats   `json:"stats"`
	Problems []ProblemView `json:"problems"`
}

func toStatusResponse(record model.StatusRecord) StatusResponse {
	return StatusResponse{
		ProblemID: record.ProblemID,
		Status:    record.Status,
		UpdatedAt: record.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCompanyDetailResponse(detail model.CompanyDetail) CompanyDetailResponse {
	problems := make([]ProblemView, 0, len(detail.Problems))
	for _, item := range detail.Problems {
		problems = append(problems, ProblemView{
			Problem:  item.Problem,
			Status:   item.Status.OrTodo(),
			Recorded: item.Status.Valid,
		})
	}
	return CompanyDetailResponse{
		ID:       detail.ID,
		Name:     detail.Name,
		Stats:    detail.Stats,
		Problems: problems,
	}
}
