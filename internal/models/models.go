package models

import (
	"strings"
	"time"
)

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the workflow state of a task. StatusCompleted is the only
// completion signal; there is no separate done flag.
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in-progress"
	StatusInReview   Status = "in-review"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in workflow order
var Statuses = []Status{StatusUpcoming, StatusInProgress, StatusInReview, StatusCompleted}

// Next returns the status that follows s in workflow order, wrapping around
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusUpcoming
}

// Comment is a note attached to a task. ID is empty until the server assigns one.
type Comment struct {
	ID        string
	Author    string
	Text      string
	CreatedAt *time.Time
}

// Pending reports whether the comment has not been confirmed by the server yet
func (c Comment) Pending() bool {
	return c.ID == ""
}

// Task represents a single task
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
	Categories  []string
	Assignee    string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []Comment
}

// Completed reports whether the task is done
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Categories = cloneStrings(t.Categories)
	c.Comments = CloneComments(t.Comments)
	return c
}

// HasCategory reports whether the task carries label, compared trimmed and case-insensitively
func (t Task) HasCategory(label string) bool {
	label = strings.TrimSpace(label)
	for _, c := range t.Categories {
		if strings.EqualFold(strings.TrimSpace(c), label) {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// CloneComments returns a deep copy of a comment list
func CloneComments(comments []Comment) []Comment {
	if comments == nil {
		return nil
	}
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = c
		if c.CreatedAt != nil {
			ts := *c.CreatedAt
			out[i].CreatedAt = &ts
		}
	}
	return out
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *Status
	DueDate     *time.Time
	Categories  *[]string
	Assignee    *string
	UpdatedAt   *time.Time
	Comments    *[]Comment

	// ClearDueDate removes the due date. DueDate takes precedence when both are set.
	ClearDueDate bool
}

// IsEmpty reports whether the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueDate == nil && p.Categories == nil &&
		p.Assignee == nil && p.UpdatedAt == nil && p.Comments == nil &&
		!p.ClearDueDate
}

// Apply returns a copy of t with the patch merged over it
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.DueDate != nil {
		d := *p.DueDate
		out.DueDate = &d
	} else if p.ClearDueDate {
		out.DueDate = nil
	}
	if p.Categories != nil {
		out.Categories = cloneStrings(*p.Categories)
	}
	if p.Assignee != nil {
		out.Assignee = *p.Assignee
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	if p.Comments != nil {
		out.Comments = CloneComments(*p.Comments)
	}
	return out
}

// PatchFrom builds a patch that overwrites every mutable field with the values of t
func PatchFrom(t Task) TaskPatch {
	c := t.Clone()
	p := TaskPatch{
		Title:       &c.Title,
		Description: &c.Description,
		Priority:    &c.Priority,
		Status:      &c.Status,
		Categories:  &c.Categories,
		Assignee:    &c.Assignee,
		UpdatedAt:   &c.UpdatedAt,
		Comments:    &c.Comments,
	}
	if c.DueDate != nil {
		p.DueDate = c.DueDate
	} else {
		p.ClearDueDate = true
	}
	return p
}

// User is the authenticated account
type User struct {
	ID    string
	Name  string
	Email string
}

// DisplayName is the name shown as comment author
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
