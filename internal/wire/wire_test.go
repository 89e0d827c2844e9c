package wire

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

const backendTaskJSON = `{
	"_id": "t1",
	"title": "Ship release",
	"priority": "high",
	"status": "in-review",
	"dueDate": "2026-03-01T09:30:00.000Z",
	"categories": ["Mobile App", "UI/UX"],
	"assignedTo": "sam@example.com",
	"createdBy": {"_id": "u1", "name": "Alex", "email": "alex@example.com"},
	"createdOn": "2026-02-01T08:00:00.000Z",
	"lastUpdated": "2026-02-02T08:00:00.000Z",
	"comments": [
		{"_id": "c1", "name": "Alex", "comment": "first", "createdAt": "2026-02-01T09:00:00.000Z"},
		{"_id": "c2", "name": "Sam", "comment": "gone", "deleted": true},
		{"id": "c3", "name": "Sam", "comment": "third"}
	],
	"done": true
}`

func TestToDomain(t *testing.T) {
	t.Parallel()

	var w Task
	if err := json.Unmarshal([]byte(backendTaskJSON), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := ToDomain(w)

	if got.ID != "t1" || got.Title != "Ship release" {
		t.Errorf("unexpected identity fields: %+v", got)
	}
	if got.Description != "" {
		t.Errorf("expected missing description to default to empty, got %q", got.Description)
	}
	if got.CreatedBy != "Alex" {
		t.Errorf("expected embedded creator to flatten to name, got %q", got.CreatedBy)
	}
	if got.Status != models.StatusInReview {
		t.Errorf("expected status from wire to win over done flag, got %q", got.Status)
	}
	if got.DueDate == nil || !got.DueDate.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected due date: %v", got.DueDate)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("expected deleted comment to be filtered, got %d comments", len(got.Comments))
	}
	if got.Comments[0].ID != "c1" || got.Comments[1].ID != "c3" {
		t.Errorf("unexpected comment ids: %q, %q", got.Comments[0].ID, got.Comments[1].ID)
	}
	if got.Comments[1].CreatedAt != nil {
		t.Errorf("expected absent createdAt to stay absent")
	}
}

func TestCreatorForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		want string
	}{
		{"plain id", `"665f1c"`, "665f1c"},
		{"object with name", `{"_id":"u1","name":"Alex","email":"a@x.io"}`, "Alex"},
		{"object without name", `{"_id":"u1","email":"a@x.io"}`, "a@x.io"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Creator
			if err := json.Unmarshal([]byte(tt.json), &c); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := c.Display(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToWireOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	status := models.StatusCompleted
	data, err := json.Marshal(ToWire(models.TaskPatch{Status: &status}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"status":"completed"}` {
		t.Errorf("expected only status to be sent, got %s", data)
	}
	if strings.Contains(string(data), "done") {
		t.Errorf("done flag must never be sent")
	}
}

func TestToWireClearDueDate(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ToWire(models.TaskPatch{ClearDueDate: true}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"dueDate":null}` {
		t.Errorf("expected explicit null, got %s", data)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	title := "Write docs"
	desc := ""
	prio := models.PriorityMedium
	status := models.StatusInProgress
	due := time.Date(2026, 5, 4, 12, 0, 0, 250_000_123, time.FixedZone("CEST", 2*3600))
	cats := []string{"Marketing", " UI "}
	assignee := "kim@example.com"

	patch := models.TaskPatch{
		Title:       &title,
		Description: &desc,
		Priority:    &prio,
		Status:      &status,
		DueDate:     &due,
		Categories:  &cats,
		Assignee:    &assignee,
	}

	data, err := json.Marshal(ToWire(patch))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var w Task
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := ToDomain(w)

	if got.Title != title || got.Description != desc || got.Priority != prio || got.Status != status {
		t.Errorf("scalar fields did not round-trip: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("expected due date %v, got %v", due, got.DueDate)
	}
	if !reflect.DeepEqual(got.Categories, cats) {
		t.Errorf("expected categories %v, got %v", cats, got.Categories)
	}
	if got.Assignee != assignee {
		t.Errorf("expected assignee %q, got %q", assignee, got.Assignee)
	}
}

func TestDueDateKeepsNanoseconds(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 5, 4, 12, 0, 0, 250_000_123, time.UTC)
	data, err := json.Marshal(ToWire(models.TaskPatch{DueDate: &due}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"dueDate":"2026-05-04T12:00:00.250000123Z"}` {
		t.Errorf("unexpected body: %s", data)
	}
	var w Task
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := ToDomain(w)
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due date lost precision: want %v, got %v", due, got.DueDate)
	}
}

func TestFormatDateUsesUTC(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("X", -5*3600))
	if got := FormatDate(ts); got != "2026-01-02T08:04:05.006Z" {
		t.Errorf("unexpected format: %s", got)
	}
}
