// Package categories derives per-category statistics from the task list.
// Nothing here is stored; aggregates are recomputed on every read.
package categories

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tgienger/taskdeck/internal/models"
)

// Aggregate summarizes the tasks carrying one category label
type Aggregate struct {
	ID         string
	Name       string
	Count      int
	Completed  int
	Percentage int
	Gradient   [2]string
}

// DefaultGradient is used for categories without a dedicated gradient
var DefaultGradient = [2]string{"#667EEA", "#764BA2"}

var gradients = map[string][2]string{
	"Web Design":      {"#667EEA", "#764BA2"},
	"Web Development": {"#3377FF", "#764BA2"},
	"Mobile App":      {"#F093FB", "#F5576C"},
	"UI/UX":           {"#4FACFE", "#00F2FE"},
	"Marketing":       {"#43E97B", "#38F9D7"},
	"Content Writing": {"#FA709A", "#FEE140"},
}

// GradientFor returns the display gradient for a category name
func GradientFor(name string) [2]string {
	if g, ok := gradients[name]; ok {
		return g
	}
	return DefaultGradient
}

var whitespace = regexp.MustCompile(`\s+`)

// Slug derives the aggregate id from its name
func Slug(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(name), "-")
}

type tally struct {
	name      string
	total     int
	completed int
}

// Compute tallies every trimmed, non-empty label across tasks. Labels are
// grouped case-insensitively and keep the first spelling seen, so "UI" and
// " ui " land in one aggregate. A task's labels are a set: a label repeated
// on one task adds one to Count, not two. Output is sorted by name.
func Compute(tasks []models.Task) []Aggregate {
	var order []*tally
	byKey := make(map[string]*tally)

	for _, t := range tasks {
		seen := make(map[string]struct{}, len(t.Categories))
		for _, label := range t.Categories {
			name := strings.TrimSpace(label)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			tl, ok := byKey[key]
			if !ok {
				tl = &tally{name: name}
				byKey[key] = tl
				order = append(order, tl)
			}
			tl.total++
			if t.Completed() {
				tl.completed++
			}
		}
	}

	out := make([]Aggregate, 0, len(order))
	for _, tl := range order {
		out = append(out, Aggregate{
			ID:         Slug(tl.name),
			Name:       tl.name,
			Count:      tl.total,
			Completed:  tl.completed,
			Percentage: percentage(tl.completed, tl.total),
			Gradient:   GradientFor(tl.name),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Visible keeps the tasks the user should see in category statistics: tasks
// assigned to them, and unassigned tasks they created.
func Visible(tasks []models.Task, user models.User) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if IsVisible(t, user) {
			out = append(out, t)
		}
	}
	return out
}

// IsVisible applies the visibility rule to one task
func IsVisible(t models.Task, user models.User) bool {
	if t.Assignee != "" {
		return user.Email != "" && strings.EqualFold(t.Assignee, user.Email)
	}
	if t.CreatedBy == "" {
		return false
	}
	return t.CreatedBy == user.Name || (user.Email != "" && strings.EqualFold(t.CreatedBy, user.Email))
}

// ForUser computes aggregates over the tasks visible to user
func ForUser(tasks []models.Task, user models.User) []Aggregate {
	return Compute(Visible(tasks, user))
}

// Filter returns the tasks carrying the category with the given id
func Filter(tasks []models.Task, id string) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		for _, label := range t.Categories {
			name := strings.TrimSpace(label)
			if name != "" && Slug(name) == id {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
