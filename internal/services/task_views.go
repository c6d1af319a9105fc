package services

import (
	"slices"

	model "task-board.com/task-board/internal/models"
)

// TaskView selects one of the three derived views. The views partition the
// collection: a completed task never appears as available or assigned, no
// matter who holds the claim record.
type TaskView string

const (
	ViewAvailable TaskView = "available"
	ViewAssigned  TaskView = "assigned"
	ViewCompleted TaskView = "completed"
)

func ParseTaskView(s string) (TaskView, bool) {
	switch TaskView(s) {
	case ViewAvailable, ViewAssigned, ViewCompleted:
		return TaskView(s), true
	default:
		return "", false
	}
}

func filterView(tasks []model.Task, view TaskView) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if matchesView(task, view) {
			out = append(out, task)
		}
	}
	return out
}

func matchesView(task model.Task, view TaskView) bool {
	switch view {
	case ViewAvailable:
		return task.Status == model.StatusPendiente && task.AssignedTo == nil
	case ViewAssigned:
		return task.Status == model.StatusPendiente && task.AssignedTo != nil
	case ViewCompleted:
		return task.Status == model.StatusCompletada
	default:
		return false
	}
}

// sortByPriority orders alta before media before baja; the sort is stable so
// ties keep arrival order.
func sortByPriority(tasks []model.Task) []model.Task {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return tasks
}
