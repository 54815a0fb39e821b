// Package seed loads company problem lists from CSV files into the catalog.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"prepboard/internal/progress/model"
)

const (
	columnID         = "ID"
	columnTitle      = "Title"
	columnAcceptance = "Acceptance"
	columnDifficulty = "Difficulty"
	columnFrequency  = "Frequency"
	columnLink       = "Leetcode Question Link"
)

var requiredColumns = []string{columnID, columnTitle, columnAcceptance, columnDifficulty, columnFrequency, columnLink}

// SkipReason explains why a row was left out.
type SkipReason string

const (
	SkipInvalidID         SkipReason = "invalid_id"
	SkipDuplicateID       SkipReason = "duplicate_id"
	SkipMissingField      SkipReason = "missing_field"
	SkipUnknownDifficulty SkipReason = "unknown_difficulty"
)

// ParseResult holds the usable problems of one file and counts of skipped rows.
type ParseResult struct {
	Problems []model.Problem
	Skipped  map[SkipReason]int
}

// SkippedTotal sums every skip reason.
func (r ParseResult) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// ParseProblems reads one company CSV. Values are trimmed; rows with a bad or
// repeated ID, no title, no link or an unknown difficulty are skipped; an
// unparsable frequency becomes 0.
func ParseProblems(r io.Reader) (ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{}, fmt.Errorf("csv is empty")
		}
		return ParseResult{}, fmt.Errorf("read csv header failed: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return ParseResult{}, err
	}

	result := ParseResult{Skipped: map[SkipReason]int{}}
	seen := make(map[int64]struct{})
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return ParseResult{}, fmt.Errorf("read csv line %d failed: %w", line, err)
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id, err := strconv.ParseInt(field(columnID), 10, 64)
		if err != nil || id <= 0 {
			result.Skipped[SkipInvalidID]++
			continue
		}
		if _, dup := seen[id]; dup {
			result.Skipped[SkipDuplicateID]++
			continue
		}
		title, link := field(columnTitle), field(columnLink)
		if title == "" || link == "" {
			result.Skipped[SkipMissingField]++
			continue
		}
		difficulty, ok := model.ParseDifficulty(field(columnDifficulty))
		if !ok {
			result.Skipped[SkipUnknownDifficulty]++
			continue
		}
		frequency := parseFrequency(field(columnFrequency))

		seen[id] = struct{}{}
		result.Problems = append(result.Problems, model.Problem{
			ExternalID:     id,
			Title:          title,
			AcceptanceRate: field(columnAcceptance),
			Difficulty:     difficulty,
			Frequency:      frequency,
			Link:           link,
		})
	}
	return result, nil
}

// parseFrequency returns 0 for anything that is not a finite non-negative
// number.
func parseFrequency(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, want := range requiredColumns {
			if strings.EqualFold(name, want) {
				index[want] = i
			}
		}
	}
	var missing []string
	for _, want := range requiredColumns {
		if _, ok := index[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header missing columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}
