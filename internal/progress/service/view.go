package service

import (
	"sort"

	"prepboard/internal/progress/model"
)

// View filters problems and orders them for display. The input slice is
// left untouched.
//
// TODO keeps unmarked and explicit TODO problems, REDO keeps explicit REDO
// only, ALL keeps everything. Ordering is descending frequency when
// sortByFrequency is set, ascending external id otherwise; ties keep input order.
func View(problems []model.ProblemStatus, filter model.Filter, sortByFrequency bool) []model.ProblemStatus {
	out := make([]model.ProblemStatus, 0, len(problems))
	for _, p := range problems {
		if keep(p.Status, filter) {
			out = append(out, p)
		}
	}

	if sortByFrequency {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Problem.Frequency > out[j].Problem.Frequency
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Problem.ExternalID < out[j].Problem.ExternalID
		})
	}
	return out
}

func keep(status model.NullStatus, filter model.Filter) bool {
	switch filter {
	case model.FilterTodo:
		return status.OrTodo() == model.StatusTodo
	case model.FilterRedo:
		return status.Valid && status.Status == model.StatusRedo
	default:
		return true
	}
}
