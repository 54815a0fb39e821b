package service

import "prepboard/internal/progress/model"

// ComputeStats counts DONE and REDO marks; everything else, including
// problems the user never touched, is TODO. Progress is the DONE share
// rounded half up to a whole percent.
func ComputeStats(problems []model.ProblemStatus) model.Stats {
	stats := model.Stats{Total: len(problems)}
	for _, p := range problems {
		switch p.Status.OrTodo() {
		case model.StatusDone:
			stats.Completed++
		case model.StatusRedo:
			stats.Redo++
		}
	}
	stats.Todo = stats.Total - stats.Completed - stats.Redo
	stats.Progress = percent(stats.Completed, stats.Total)
	return stats
}

// percent computes round-half-up(part / total * 100) in integers.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// Annotate pairs each problem with the user's recorded status.
func Annotate(problems []model.Problem, statuses map[int64]model.Status) []model.ProblemStatus {
	annotated := make([]model.ProblemStatus, len(problems))
	for i, p := range problems {
		annotated[i].Problem = p
		if s, ok := statuses[p.ID]; ok {
			annotated[i].Status = model.Known(s)
		}
	}
	return annotated
}
