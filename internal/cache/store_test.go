package cache

import (
	"reflect"
	"testing"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

func task(id string, status models.Status, categories ...string) models.Task {
	return models.Task{
		ID:         id,
		Title:      "Task " + id,
		Priority:   models.PriorityMedium,
		Status:     status,
		Categories: categories,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Comments:   []models.Comment{},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestInsertKeepsOrderAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	s := New()
	if !s.Insert(task("1", models.StatusUpcoming)) {
		t.Fatal("expected first insert to succeed")
	}
	s.Insert(task("2", models.StatusUpcoming))

	dup := task("1", models.StatusCompleted)
	dup.Title = "changed"
	if s.Insert(dup) {
		t.Error("expected duplicate insert to be rejected")
	}

	got := s.List()
	if !reflect.DeepEqual(ids(got), []string{"1", "2"}) {
		t.Errorf("expected insertion order [1 2], got %v", ids(got))
	}
	if got[0].Title != "Task 1" {
		t.Errorf("duplicate insert must not overwrite, got title %q", got[0].Title)
	}
}

func TestInsertAtRestoresPosition(t *testing.T) {
	t.Parallel()

	s := New()
	s.ReplaceAll([]models.Task{task("1", ""), task("2", ""), task("3", "")})

	removed, idx, ok := s.Remove("2")
	if !ok || idx != 1 {
		t.Fatalf("expected to remove index 1, got %d (ok=%v)", idx, ok)
	}
	s.InsertAt(idx, removed)

	if got := ids(s.List()); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}

	s.InsertAt(99, task("4", ""))
	if got := ids(s.List()); got[len(got)-1] != "4" {
		t.Errorf("expected out-of-range index to append, got %v", got)
	}
}

func TestPatchMergesFields(t *testing.T) {
	t.Parallel()

	s := New()
	s.Insert(task("1", models.StatusUpcoming, "UI"))

	status := models.StatusCompleted
	if !s.Patch("1", models.TaskPatch{Status: &status}) {
		t.Fatal("expected patch to apply")
	}
	got, _ := s.Get("1")
	if got.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %q", got.Status)
	}
	if got.Title != "Task 1" || !reflect.DeepEqual(got.Categories, []string{"UI"}) {
		t.Errorf("patch must leave other fields alone, got %+v", got)
	}

	if s.Patch("missing", models.TaskPatch{Status: &status}) {
		t.Error("expected patch of unknown id to be a no-op")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	t.Parallel()

	s := New()
	s.Insert(task("1", ""))
	if _, _, ok := s.Remove("nope"); ok {
		t.Error("expected remove of unknown id to report false")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 task, got %d", s.Len())
	}
}

func TestReadersGetCopies(t *testing.T) {
	t.Parallel()

	s := New()
	s.Insert(task("1", "", "UI"))

	got, _ := s.Get("1")
	got.Categories[0] = "mutated"
	got.Comments = append(got.Comments, models.Comment{Text: "x"})

	again, _ := s.Get("1")
	if again.Categories[0] != "UI" || len(again.Comments) != 0 {
		t.Errorf("store state leaked to reader: %+v", again)
	}
}

func TestReplaceAllAndClearBumpGeneration(t *testing.T) {
	t.Parallel()

	s := New()
	g0 := s.Generation()
	s.ReplaceAll([]models.Task{task("1", ""), task("1", ""), task("2", "")})
	if s.Len() != 2 {
		t.Errorf("expected duplicates to collapse, got %d tasks", s.Len())
	}
	g1 := s.Generation()
	if g1 <= g0 {
		t.Errorf("expected generation to grow on replace")
	}

	s.Insert(task("3", ""))
	if s.Generation() != g1 {
		t.Errorf("insert must not change generation")
	}

	s.Clear()
	if s.Len() != 0 || s.Generation() <= g1 {
		t.Errorf("expected empty store with newer generation")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	t.Parallel()

	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Insert(task("1", ""))
	s.Remove("1")
	s.Clear()

	want := []ChangeKind{ChangeInsert, ChangeRemove, ChangeClear}
	for _, kind := range want {
		select {
		case c := <-ch:
			if c.Kind != kind {
				t.Errorf("expected %s, got %s", kind, c.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	t.Parallel()

	s := New()
	ch := s.Subscribe()
	s.Unsubscribe(ch)
	s.Unsubscribe(ch)
	s.Insert(task("1", ""))
}
