// Package wire maps between the backend JSON task representation and the
// domain types in internal/models.
package wire

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

// Creator is the createdBy field, which the backend sends either as a bare
// identifier or as an embedded user object.
type Creator struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// Raw holds the identifier when the backend sent a plain string
	Raw string `json:"-"`
}

// UnmarshalJSON accepts both the string and the object form
func (c *Creator) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Creator{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Creator{Raw: s}
		return nil
	}
	type plain Creator
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Creator(p)
	return nil
}

// MarshalJSON writes the string form when the creator came in as one
func (c Creator) MarshalJSON() ([]byte, error) {
	if c.Raw != "" {
		return json.Marshal(c.Raw)
	}
	type plain Creator
	return json.Marshal(plain(c))
}

// Display flattens the creator into the string kept on the domain task
func (c Creator) Display() string {
	if c.Raw != "" {
		return c.Raw
	}
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	}
	return c.ID
}

// Comment is a comment as stored by the backend
type Comment struct {
	ID        string     `json:"_id,omitempty"`
	AltID     string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Comment   string     `json:"comment"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
}

// Task is a task as returned by the backend
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Categories  []string   `json:"categories"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	CreatedBy   Creator    `json:"createdBy"`
	CreatedOn   time.Time  `json:"createdOn"`
	LastUpdated time.Time  `json:"lastUpdated"`
	Comments    []Comment  `json:"comments"`
	Done        bool       `json:"done"`
	Deleted     bool       `json:"deleted,omitempty"`
}

// User is the account payload of /api/users/me and sign-up responses
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Category is an aggregate computed by the backend's legacy categories endpoint
type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ProjectCount   int       `json:"projectCount"`
	Percentage     int       `json:"percentage"`
	GradientColors [2]string `json:"gradientColors"`
}

// ToDomain converts a backend task. Comments flagged deleted are dropped and
// the done flag is ignored in favour of the status.
func ToDomain(w Task) models.Task {
	t := models.Task{
		ID:         w.ID,
		Title:      w.Title,
		Priority:   models.Priority(w.Priority),
		Status:     models.Status(w.Status),
		Categories: w.Categories,
		Assignee:   w.AssignedTo,
		CreatedBy:  w.CreatedBy.Display(),
		CreatedAt:  w.CreatedOn,
		UpdatedAt:  w.LastUpdated,
		Comments:   []models.Comment{},
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	if t.Categories == nil {
		t.Categories = []string{}
	}
	if w.DueDate != nil {
		d := *w.DueDate
		t.DueDate = &d
	}
	for _, c := range w.Comments {
		if c.Deleted {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.AltID
		}
		t.Comments = append(t.Comments, models.Comment{
			ID:        id,
			Author:    c.Name,
			Text:      c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}
	return t.Clone()
}

// ToDomainList converts a list of backend tasks
func ToDomainList(ws []Task) []models.Task {
	tasks := make([]models.Task, 0, len(ws))
	for _, w := range ws {
		tasks = append(tasks, ToDomain(w))
	}
	return tasks
}

// UserToDomain converts an account payload
func UserToDomain(u User) models.User {
	return models.User{ID: u.ID, Name: u.Name, Email: u.Email}
}
