package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskdeck/internal/models"
)

// Mutator applies task changes. The orchestrator implements it.
type Mutator interface {
	Create(ctx context.Context, draft models.Task) (models.Task, error)
	Update(ctx context.Context, id string, changes models.TaskPatch) error
	MarkDone(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, taskID, text string) error
	DeleteComment(ctx context.Context, taskID string, index int) error
}

// StoreChanged tells views to re-read the cache
type StoreChanged struct{}

// OpenTask asks the app to show the detail view for a task
type OpenTask struct {
	ID string
}

// OpenCategories asks the app to show the categories view
type OpenCategories struct{}

// BackToTasks returns to the task list
type BackToTasks struct{}

// FilterCategory narrows the task list to one category. An empty ID clears the filter.
type FilterCategory struct {
	ID   string
	Name string
}

// ToggleTheme asks the app to switch and persist the color theme
type ToggleTheme struct{}

// RefreshTasks asks the app to reload the task list from the server
type RefreshTasks struct{}

// mutationDone carries the outcome of a mutation started by a view
type mutationDone struct {
	op     string
	taskID string
	err    error
}

// run wraps a mutation call in a command
func run(op, taskID string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return mutationDone{op: op, taskID: taskID, err: fn()}
	}
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
