package categories

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tgienger/taskdeck/internal/models"
)

func tk(id string, status models.Status, cats ...string) models.Task {
	return models.Task{ID: id, Status: status, Categories: cats}
}

func find(aggs []Aggregate, name string) (Aggregate, bool) {
	for _, a := range aggs {
		if a.Name == name {
			return a, true
		}
	}
	return Aggregate{}, false
}

func TestComputeCounts(t *testing.T) {
	t.Parallel()

	aggs := Compute([]models.Task{
		tk("1", models.StatusCompleted, "A", "B"),
		tk("2", models.StatusUpcoming, "A"),
	})

	a, ok := find(aggs, "A")
	if !ok || a.Count != 2 {
		t.Fatalf("expected A with count 2, got %+v", aggs)
	}
	if a.Percentage != 50 {
		t.Errorf("expected A at 50%%, got %d", a.Percentage)
	}
	b, ok := find(aggs, "B")
	if !ok || b.Count != 1 {
		t.Fatalf("expected B with count 1, got %+v", aggs)
	}
	if b.Percentage != 100 {
		t.Errorf("expected B at 100%%, got %d", b.Percentage)
	}
}

func TestComputeNormalizesLabels(t *testing.T) {
	t.Parallel()

	aggs := Compute([]models.Task{
		tk("1", models.StatusUpcoming, "  Mobile App ", "", "   "),
		tk("2", models.StatusUpcoming, "mobile app", "Mobile App"),
	})
	if len(aggs) != 1 {
		t.Fatalf("expected one aggregate, got %+v", aggs)
	}
	got := aggs[0]
	if got.Name != "Mobile App" || got.Count != 2 {
		t.Errorf("expected Mobile App x2, got %+v", got)
	}
	if got.ID != "mobile-app" {
		t.Errorf("expected slug mobile-app, got %q", got.ID)
	}
	if got.Gradient != [2]string{"#F093FB", "#F5576C"} {
		t.Errorf("unexpected gradient %v", got.Gradient)
	}
}

func TestComputeRounding(t *testing.T) {
	t.Parallel()

	aggs := Compute([]models.Task{
		tk("1", models.StatusCompleted, "X"),
		tk("2", models.StatusInReview, "X"),
		tk("3", models.StatusInProgress, "X"),
	})
	if aggs[0].Percentage != 33 {
		t.Errorf("expected 33, got %d", aggs[0].Percentage)
	}

	aggs = Compute([]models.Task{
		tk("1", models.StatusCompleted, "Y"),
		tk("2", models.StatusCompleted, "Y"),
		tk("3", models.StatusUpcoming, "Y"),
	})
	if aggs[0].Percentage != 67 {
		t.Errorf("expected 67, got %d", aggs[0].Percentage)
	}
}

func TestComputeSortIsCaseSensitive(t *testing.T) {
	t.Parallel()

	aggs := Compute([]models.Task{tk("1", "", "beta", "Zed", "Alpha")})
	var names []string
	for _, a := range aggs {
		names = append(names, a.Name)
	}
	if !reflect.DeepEqual(names, []string{"Alpha", "Zed", "beta"}) {
		t.Errorf("unexpected order %v", names)
	}
}

func TestComputeIsDeterministicUnderPermutation(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		tk("1", models.StatusCompleted, "UI", "Backend"),
		tk("2", models.StatusUpcoming, "UI"),
		tk("3", models.StatusCompleted, "Docs"),
		tk("4", models.StatusInReview, "Backend", "Docs"),
		tk("5", models.StatusCompleted, "UI"),
	}
	want := Compute(tasks)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Task(nil), tasks...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Compute(shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d changed the result:\nwant %+v\ngot  %+v", i, want, got)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	if got := Compute(nil); len(got) != 0 {
		t.Errorf("expected no aggregates, got %+v", got)
	}
}

func TestVisible(t *testing.T) {
	t.Parallel()

	user := models.User{Name: "Alex", Email: "alex@example.com"}
	tests := []struct {
		name string
		task models.Task
		want bool
	}{
		{"assigned to me", models.Task{Assignee: "ALEX@example.com", CreatedBy: "Kim"}, true},
		{"assigned to someone else", models.Task{Assignee: "kim@example.com", CreatedBy: "Alex"}, false},
		{"unassigned, created by my name", models.Task{CreatedBy: "Alex"}, true},
		{"unassigned, created by my email", models.Task{CreatedBy: "Alex@Example.com"}, true},
		{"unassigned, created by someone else", models.Task{CreatedBy: "Kim"}, false},
		{"no creator", models.Task{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVisible(tt.task, user); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestForUserExcludesDelegatedTasks(t *testing.T) {
	t.Parallel()

	user := models.User{Name: "Alex", Email: "alex@example.com"}
	tasks := []models.Task{
		{ID: "1", CreatedBy: "Alex", Categories: []string{"UI"}},
		{ID: "2", CreatedBy: "Alex", Assignee: "kim@example.com", Categories: []string{"UI"}},
	}
	aggs := ForUser(tasks, user)
	if len(aggs) != 1 || aggs[0].Count != 1 {
		t.Errorf("expected UI with one visible task, got %+v", aggs)
	}
}

func TestFilterBySlug(t *testing.T) {
	t.Parallel()

	tasks := []models.Task{
		tk("1", "", "Web Design"),
		tk("2", "", "web design "),
		tk("3", "", "Marketing"),
	}
	got := Filter(tasks, "web-design")
	if len(got) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(got))
	}
}
