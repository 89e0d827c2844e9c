package models

import (
	"testing"
	"time"
)

func TestStatusNextWraps(t *testing.T) {
	t.Parallel()

	cases := map[Status]Status{
		StatusUpcoming:   StatusInProgress,
		StatusInProgress: StatusInReview,
		StatusInReview:   StatusCompleted,
		StatusCompleted:  StatusUpcoming,
		Status("bogus"):  StatusUpcoming,
	}
	for from, want := range cases {
		if got := from.Next(); got != want {
			t.Errorf("%s.Next() = %s, want %s", from, got, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	at := due.Add(time.Hour)
	orig := Task{
		ID:         "1",
		DueDate:    &due,
		Categories: []string{"UI"},
		Comments:   []Comment{{ID: "c1", Text: "hi", CreatedAt: &at}},
	}
	c := orig.Clone()
	c.Categories[0] = "Ops"
	c.Comments[0].Text = "changed"
	*c.DueDate = due.Add(24 * time.Hour)
	*c.Comments[0].CreatedAt = at.Add(time.Hour)

	if orig.Categories[0] != "UI" || orig.Comments[0].Text != "hi" {
		t.Errorf("Clone shares slices: %+v", orig)
	}
	if !orig.DueDate.Equal(due) || !orig.Comments[0].CreatedAt.Equal(at) {
		t.Error("Clone shares time pointers")
	}
}

func TestApplyLeavesNilFieldsAlone(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := Task{ID: "1", Title: "Old", Priority: PriorityLow, DueDate: &due}
	title := "New"
	got := TaskPatch{Title: &title}.Apply(task)

	if got.Title != "New" || got.Priority != PriorityLow || got.DueDate == nil {
		t.Errorf("Apply = %+v", got)
	}
	if task.Title != "Old" {
		t.Error("Apply modified its input")
	}

	cleared := TaskPatch{ClearDueDate: true}.Apply(task)
	if cleared.DueDate != nil {
		t.Error("Expected due date to be cleared")
	}
}

func TestPatchFromRestoresSnapshot(t *testing.T) {
	t.Parallel()

	snapshot := Task{ID: "1", Title: "Before", Status: StatusUpcoming, Categories: []string{"UI"}}
	due := time.Now()
	changed := Task{ID: "1", Title: "After", Status: StatusCompleted, DueDate: &due, Comments: []Comment{{Text: "x"}}}

	restored := PatchFrom(snapshot).Apply(changed)
	if restored.Title != "Before" || restored.Status != StatusUpcoming {
		t.Errorf("restored = %+v", restored)
	}
	if restored.DueDate != nil {
		t.Error("Expected the absent due date to be restored")
	}
	if len(restored.Comments) != 0 || len(restored.Categories) != 1 {
		t.Errorf("restored collections = %+v / %+v", restored.Categories, restored.Comments)
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	if !(TaskPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	if (TaskPatch{ClearDueDate: true}).IsEmpty() {
		t.Error("clearing the due date is a change")
	}
}

func TestHasCategoryAndDisplayName(t *testing.T) {
	t.Parallel()

	task := Task{Categories: []string{" Web Design "}}
	if !task.HasCategory("web design") {
		t.Error("HasCategory should ignore case and whitespace")
	}
	if (User{Email: "a@example.com"}).DisplayName() != "a@example.com" {
		t.Error("DisplayName should fall back to email")
	}
}
