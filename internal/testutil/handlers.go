package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/wire"
)

func (f *FakeAPI) handleSignIn(w http.ResponseWriter, r *http.Request, _ string) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[strings.ToLower(body.Email)]
	if !ok || acc.password != body.Password {
		writeError(w, http.StatusBadRequest, "Invalid email or password.")
		return
	}
	token := uuid.NewString()
	f.tokens[token] = acc.user.Email
	writeJSON(w, http.StatusOK, token)
}

func (f *FakeAPI) handleSignUp(w http.ResponseWriter, r *http.Request, _ string) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	email := strings.ToLower(body.Email)
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		writeError(w, http.StatusBadRequest, "User already registered.")
		return
	}
	user := wire.User{ID: uuid.NewString(), Name: body.Name, Email: email}
	f.accounts[email] = account{user: user, password: body.Password}
	token := uuid.NewString()
	f.tokens[token] = email
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (f *FakeAPI) handleMe(w http.ResponseWriter, _ *http.Request, email string) {
	f.mu.Lock()
	u := f.user(email)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (f *FakeAPI) handleList(w http.ResponseWriter, _ *http.Request, _ string) {
	f.mu.Lock()
	out := make([]wire.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if !t.Deleted {
			out = append(out, t)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCreatedByMe(w http.ResponseWriter, _ *http.Request, email string) {
	f.mu.Lock()
	u := f.user(email)
	out := make([]wire.Task, 0)
	for _, t := range f.tasks {
		if t.Deleted {
			continue
		}
		by := t.CreatedBy
		if by.Email == u.Email || by.Raw == u.Name || strings.EqualFold(by.Raw, u.Email) {
			out = append(out, t)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCategories(w http.ResponseWriter, _ *http.Request, email string) {
	f.mu.Lock()
	u := wire.UserToDomain(f.user(email))
	tasks := wire.ToDomainList(f.tasks)
	f.mu.Unlock()

	aggs := categories.ForUser(tasks, u)
	out := make([]wire.Category, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, wire.Category{
			ID:             a.ID,
			Name:           a.Name,
			ProjectCount:   a.Count,
			Percentage:     a.Percentage,
			GradientColors: a.Gradient,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleGet(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 || f.tasks[i].Deleted {
		writeError(w, http.StatusNotFound, "The task with the given ID was not found.")
		return
	}
	writeJSON(w, http.StatusOK, f.tasks[i])
}

// decodePatch reads a create or update body, noting an explicit dueDate null
func decodePatch(r *http.Request) (wire.TaskPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return wire.TaskPatch{}, err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return wire.TaskPatch{}, err
	}
	var p wire.TaskPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return wire.TaskPatch{}, err
	}
	if v, ok := raw["dueDate"]; ok && string(v) == "null" {
		p.ClearDueDate = true
	}
	return p, nil
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request, email string) {
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Title == nil || strings.TrimSpace(*p.Title) == "" {
		writeError(w, http.StatusBadRequest, "\"title\" is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.user(email)
	now := f.now()
	t := wire.Task{
		ID:          uuid.NewString(),
		Priority:    string(models.PriorityMedium),
		Status:      string(models.StatusUpcoming),
		Categories:  []string{},
		CreatedBy:   wire.Creator{ID: u.ID, Name: u.Name, Email: u.Email},
		CreatedOn:   now,
		LastUpdated: now,
		Comments:    []wire.Comment{},
	}
	if err := applyPatch(&t, p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.tasks = append(f.tasks, t)
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) handleUpdate(w http.ResponseWriter, r *http.Request, _ string) {
	p, err := decodePatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 || f.tasks[i].Deleted {
		writeError(w, http.StatusNotFound, "The task with the given ID was not found.")
		return
	}
	t := f.tasks[i]
	if err := applyPatch(&t, p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.LastUpdated = f.now()
	f.tasks[i] = t
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) handleDelete(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 || f.tasks[i].Deleted {
		writeError(w, http.StatusNotFound, "The task with the given ID was not found.")
		return
	}
	t := f.tasks[i]
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) handleAddComment(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Comment) == "" {
		writeError(w, http.StatusBadRequest, "\"comment\" is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 || f.tasks[i].Deleted {
		writeError(w, http.StatusNotFound, "The task with the given ID was not found.")
		return
	}
	now := f.now()
	u := f.user(email)
	t := f.tasks[i]
	t.Comments = append(append([]wire.Comment{}, t.Comments...), wire.Comment{
		ID:        uuid.NewString(),
		Name:      u.Name,
		Comment:   body.Comment,
		CreatedAt: &now,
	})
	t.LastUpdated = now
	f.tasks[i] = t
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) handleDeleteComment(w http.ResponseWriter, r *http.Request, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(r.PathValue("id"))
	if i < 0 || f.tasks[i].Deleted {
		writeError(w, http.StatusNotFound, "The task with the given ID was not found.")
		return
	}
	t := f.tasks[i]
	commentID := r.PathValue("commentId")
	kept := make([]wire.Comment, 0, len(t.Comments))
	found := false
	for _, c := range t.Comments {
		if c.ID == commentID || (c.ID == "" && c.AltID == commentID) {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		writeError(w, http.StatusNotFound, "The comment with the given ID was not found.")
		return
	}
	t.Comments = kept
	t.LastUpdated = f.now()
	f.tasks[i] = t
	writeJSON(w, http.StatusOK, t)
}

func applyPatch(t *wire.Task, p wire.TaskPatch) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return errors.New("\"title\" is not allowed to be empty")
		}
		t.Title = *p.Title
	}
	if p.Description != nil {
		v := *p.Description
		t.Description = &v
	}
	if p.Priority != nil {
		switch models.Priority(*p.Priority) {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			t.Priority = *p.Priority
		default:
			return errors.New("\"priority\" must be one of [low, medium, high]")
		}
	}
	if p.Status != nil {
		valid := false
		for _, s := range models.Statuses {
			if string(s) == *p.Status {
				valid = true
			}
		}
		if !valid {
			return errors.New("\"status\" is not a valid status")
		}
		t.Status = *p.Status
		t.Done = models.Status(*p.Status) == models.StatusCompleted
	}
	if p.DueDate != nil {
		d, err := parseDate(*p.DueDate)
		if err != nil {
			return errors.New("\"dueDate\" must be a valid date")
		}
		t.DueDate = &d
	} else if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.Categories != nil {
		t.Categories = append([]string{}, (*p.Categories)...)
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Comments != nil {
		t.Comments = append([]wire.Comment{}, (*p.Comments)...)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
