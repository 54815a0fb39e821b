// Package model defines the catalog and progress types shared by the
// progress repositories, services and handlers.
package model

import (
	"strings"
	"time"

	pkgerrors "prepboard/pkg/errors"
)

// Status is a user's explicit mark on a problem.
type Status string

const (
	StatusTodo Status = "TODO"
	StatusDone Status = "DONE"
	StatusRedo Status = "REDO"
)

// ParseStatus accepts TODO, DONE or REDO in any case.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusTodo, StatusDone, StatusRedo:
		return s, nil
	}
	return "", pkgerrors.New(pkgerrors.InvalidStatus).WithDetail("status", raw)
}

// NullStatus is the result of a status lookup. Valid is false when the user
// never marked the problem.
type NullStatus struct {
	Status Status
	Valid  bool
}

// Known wraps an explicit status.
func Known(s Status) NullStatus {
	return NullStatus{Status: s, Valid: true}
}

// OrTodo applies the implicit TODO default for absent records.
func (n NullStatus) OrTodo() Status {
	if !n.Valid {
		return StatusTodo
	}
	return n.Status
}

// Difficulty is the catalog difficulty level of a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ParseDifficulty normalises "Easy", "easy" and "EASY" alike.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(raw))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	}
	return "", false
}

// Filter selects which problems a company view shows.
type Filter string

const (
	FilterAll  Filter = "ALL"
	FilterTodo Filter = "TODO"
	FilterRedo Filter = "REDO"
)

// ParseFilter accepts ALL, TODO or REDO in any case; empty means ALL.
func ParseFilter(raw string) (Filter, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FilterAll, nil
	}
	switch f := Filter(strings.ToUpper(trimmed)); f {
	case FilterAll, FilterTodo, FilterRedo:
		return f, nil
	}
	return "", pkgerrors.New(pkgerrors.InvalidFilter).WithDetail("filter", raw)
}

// Problem is a catalog entry. Read-only once the catalog is loaded.
type Problem struct {
	ID             int64      `json:"id"`
	ExternalID     int64      `json:"external_id"`
	Title          string     `json:"title"`
	AcceptanceRate string     `json:"acceptance_rate"`
	Difficulty     Difficulty `json:"difficulty"`
	Frequency      float64    `json:"frequency"`
	Link           string     `json:"link"`
	CompanyID      int64      `json:"company_id"`
}

// Company groups problems; its name doubles as the URL slug.
type Company struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Problems []Problem `json:"problems"`
}

// StatusRecord is the persisted status of one (user, problem) pair.
type StatusRecord struct {
	UserID    int64     `json:"user_id"`
	ProblemID int64     `json:"problem_id"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProblemStatus is a problem annotated with the viewing user's status.
type ProblemStatus struct {
	Problem Problem
	Status  NullStatus
}

// Stats are the derived progress counts over a set of problems.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Redo      int `json:"redo"`
	Todo      int `json:"todo"`
	Progress  int `json:"progress"`
}

// CompanySummary is one row of the company overview.
type CompanySummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProblemCount int    `json:"problem_count"`
	Stats        Stats  `json:"stats"`
}

// Overview lists every company with its stats plus the global rollup.
type Overview struct {
	Companies []CompanySummary `json:"companies"`
	Global    Stats            `json:"global"`
}

// CompanyDetail is one company with whole-company stats and the
// filtered, sorted problem list.
type CompanyDetail struct {
	ID       int64
	Name     string
	Stats    Stats
	Problems []ProblemStatus
}
