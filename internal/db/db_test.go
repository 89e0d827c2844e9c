package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSettings(t *testing.T) {
	d := openTest(t)

	v, err := d.GetSetting(KeyAuthToken)
	if err != nil || v != "" {
		t.Fatalf("missing key = %q, %v", v, err)
	}
	if err := d.SetSetting(KeyAuthToken, "one"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSetting(KeyAuthToken, "two"); err != nil {
		t.Fatal(err)
	}
	if v, _ := d.GetSetting(KeyAuthToken); v != "two" {
		t.Errorf("value = %q, want two", v)
	}
	if err := d.DeleteSetting(KeyAuthToken); err != nil {
		t.Fatal(err)
	}
	if v, _ := d.GetSetting(KeyAuthToken); v != "" {
		t.Errorf("after delete = %q", v)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := openTest(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	due := created.Add(48 * time.Hour)
	commented := created.Add(time.Hour)

	tasks := []models.Task{
		{
			ID: "b", Title: "Second", Priority: models.PriorityHigh, Status: models.StatusInReview,
			DueDate: &due, Categories: []string{"UI", "Web Design"}, Assignee: "ada@example.com",
			CreatedBy: "Ada", CreatedAt: created, UpdatedAt: created,
			Comments: []models.Comment{
				{ID: "c1", Author: "Bob", Text: "hi", CreatedAt: &commented},
				{Author: "You", Text: "pending"},
			},
		},
		{
			ID: "a", Title: "First", Priority: models.PriorityLow, Status: models.StatusUpcoming,
			Categories: []string{}, CreatedAt: created, UpdatedAt: created, Comments: []models.Comment{},
		},
	}
	if err := d.SaveTasks(tasks); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}

	got, err := d.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("order = %+v", got)
	}
	b := got[0]
	if b.DueDate == nil || !b.DueDate.Equal(due) {
		t.Errorf("due = %v", b.DueDate)
	}
	if len(b.Categories) != 2 || b.Categories[1] != "Web Design" {
		t.Errorf("categories = %v", b.Categories)
	}
	if len(b.Comments) != 1 || b.Comments[0].ID != "c1" || !b.Comments[0].CreatedAt.Equal(commented) {
		t.Errorf("comments = %+v", b.Comments)
	}
	if got[1].DueDate != nil {
		t.Errorf("unexpected due date %v", got[1].DueDate)
	}

	// saving again replaces, cascading to children
	if err := d.SaveTasks(tasks[1:]); err != nil {
		t.Fatal(err)
	}
	got, _ = d.ListTasks()
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if cats, _ := d.GetTaskCategories("b"); len(cats) != 0 {
		t.Errorf("orphan categories %v", cats)
	}
}

func TestClearTasksAndSnapshotTime(t *testing.T) {
	d := openTest(t)
	if at, err := d.SnapshotTime(); err != nil || !at.IsZero() {
		t.Fatalf("SnapshotTime = %v, %v", at, err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := d.MarkSnapshot(now); err != nil {
		t.Fatal(err)
	}
	if at, _ := d.SnapshotTime(); !at.Equal(now) {
		t.Errorf("SnapshotTime = %v", at)
	}

	if err := d.SaveTasks([]models.Task{{ID: "x", Title: "x", Priority: "low", Status: "upcoming"}}); err != nil {
		t.Fatal(err)
	}
	if err := d.ClearTasks(); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.ListTasks(); len(got) != 0 {
		t.Errorf("after clear: %+v", got)
	}
}

func TestSaveTasksKeepsFirstDuplicate(t *testing.T) {
	d := openTest(t)
	err := d.SaveTasks([]models.Task{
		{ID: "a", Title: "first", Priority: "low", Status: "upcoming", Categories: []string{"UI"}},
		{ID: "b", Title: "other", Priority: "low", Status: "upcoming"},
		{ID: "a", Title: "second", Priority: "high", Status: "completed", Categories: []string{"Ops"}},
	})
	if err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}

	got, err := d.ListTasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("ListTasks = %+v", got)
	}
	if got[0].Title != "first" || len(got[0].Categories) != 1 || got[0].Categories[0] != "UI" {
		t.Errorf("duplicate overwrote the first task: %+v", got[0])
	}
}
