package service

import "prepboard/internal/progress/model"

// NextStatus implements the click-to-toggle rule: choosing the status the
// problem already has resets it to TODO, anything else switches to target.
func NextStatus(current model.NullStatus, target model.Status) model.Status {
	if current.OrTodo() == target {
		return model.StatusTodo
	}
	return target
}
