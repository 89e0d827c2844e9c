package wire

import (
	"encoding/json"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

// DateLayout is the interchange format for dates sent to the backend. It
// keeps every fractional digit so a parsed date equals the one formatted.
const DateLayout = time.RFC3339Nano

// TaskPatch is the request body of create and update calls. Only fields that
// are set are serialized, so omitted fields never overwrite server state.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"`
	Categories  *[]string  `json:"categories,omitempty"`
	AssignedTo  *string    `json:"assignedTo,omitempty"`
	Comments    *[]Comment `json:"comments,omitempty"`

	// ClearDueDate sends an explicit null for dueDate
	ClearDueDate bool `json:"-"`
}

// MarshalJSON adds the explicit dueDate null when requested
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	type plain TaskPatch
	data, err := json.Marshal(plain(p))
	if err != nil || !p.ClearDueDate || p.DueDate != nil {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["dueDate"] = json.RawMessage("null")
	return json.Marshal(fields)
}

// FormatDate renders a timestamp in DateLayout, always in UTC
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ToWire converts a domain patch into a request body. UpdatedAt is owned by
// the server and is never sent.
func ToWire(p models.TaskPatch) TaskPatch {
	var w TaskPatch
	if p.Title != nil {
		v := *p.Title
		w.Title = &v
	}
	if p.Description != nil {
		v := *p.Description
		w.Description = &v
	}
	if p.Priority != nil {
		v := string(*p.Priority)
		w.Priority = &v
	}
	if p.Status != nil {
		v := string(*p.Status)
		w.Status = &v
	}
	if p.DueDate != nil {
		v := FormatDate(*p.DueDate)
		w.DueDate = &v
	} else if p.ClearDueDate {
		w.ClearDueDate = true
	}
	if p.Categories != nil {
		v := append([]string{}, (*p.Categories)...)
		w.Categories = &v
	}
	if p.Assignee != nil {
		v := *p.Assignee
		w.AssignedTo = &v
	}
	if p.Comments != nil {
		v := make([]Comment, 0, len(*p.Comments))
		for _, c := range *p.Comments {
			v = append(v, Comment{ID: c.ID, Name: c.Author, Comment: c.Text, CreatedAt: c.CreatedAt})
		}
		w.Comments = &v
	}
	return w
}

// DraftPatch builds the create body for a new task
func DraftPatch(t models.Task) TaskPatch {
	p := models.TaskPatch{
		Title:       &t.Title,
		Description: &t.Description,
		Priority:    &t.Priority,
		Status:      &t.Status,
		DueDate:     t.DueDate,
		Categories:  &t.Categories,
	}
	if t.Categories == nil {
		p.Categories = &[]string{}
	}
	if t.Assignee != "" {
		p.Assignee = &t.Assignee
	}
	return ToWire(p)
}
