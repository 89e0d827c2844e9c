package calendar

import (
	"testing"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

func span(id string, created time.Time, due *time.Time) models.Task {
	return models.Task{ID: id, CreatedAt: created, DueDate: due}
}

func at(loc *time.Location, y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, loc)
}

func TestCovers(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*3600)
	created := at(loc, 2026, 3, 10, 18)
	due := at(loc, 2026, 3, 12, 9)

	tests := []struct {
		name string
		task models.Task
		day  time.Time
		want bool
	}{
		{"created day, earlier hour", span("1", created, &due), at(loc, 2026, 3, 10, 0), true},
		{"between", span("1", created, &due), at(loc, 2026, 3, 11, 12), true},
		{"due day, later hour", span("1", created, &due), at(loc, 2026, 3, 12, 23), true},
		{"day before created", span("1", created, &due), at(loc, 2026, 3, 9, 23), false},
		{"day after due", span("1", created, &due), at(loc, 2026, 3, 13, 0), false},
		{"no due date", span("1", created, nil), at(loc, 2026, 3, 11, 12), false},
		{"due before created", span("1", created, ptr(at(loc, 2026, 3, 8, 9))), at(loc, 2026, 3, 9, 12), false},
		{"same day span", span("1", created, ptr(at(loc, 2026, 3, 10, 20))), at(loc, 2026, 3, 10, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Covers(tt.task, tt.day); got != tt.want {
				t.Errorf("Covers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoversUsesLocalDayBoundaries(t *testing.T) {
	t.Parallel()

	// 03:00 UTC on the 12th is still the 11th at UTC-5
	loc := time.FixedZone("EST", -5*3600)
	due := time.Date(2026, 3, 12, 3, 0, 0, 0, time.UTC)
	task := span("1", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), &due)

	if Covers(task, at(loc, 2026, 3, 12, 12)) {
		t.Error("the 12th should be past the local due day")
	}
	if !Covers(task, at(loc, 2026, 3, 11, 12)) {
		t.Error("the 11th should be the local due day")
	}
}

func TestTasksOnKeepsOrder(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	d1 := at(loc, 2026, 4, 5, 0)
	d2 := at(loc, 2026, 4, 2, 0)
	tasks := []models.Task{
		span("b", at(loc, 2026, 4, 1, 0), &d1),
		span("x", at(loc, 2026, 4, 1, 0), nil),
		span("a", at(loc, 2026, 4, 1, 0), &d2),
	}

	got := TasksOn(tasks, at(loc, 2026, 4, 2, 15))
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("TasksOn = %+v", got)
	}
	if got := TasksOn(tasks, at(loc, 2026, 4, 6, 0)); len(got) != 0 {
		t.Errorf("expected nothing after every due date, got %+v", got)
	}
}

func TestMonthDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.January, 31},
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2026, time.April, 30},
	}
	for _, tt := range tests {
		days := MonthDays(tt.year, tt.month, time.UTC)
		if len(days) != tt.want {
			t.Errorf("%d-%02d: %d days, want %d", tt.year, tt.month, len(days), tt.want)
			continue
		}
		if days[0].Day() != 1 || days[len(days)-1].Month() != tt.month {
			t.Errorf("%d-%02d: unexpected range %v..%v", tt.year, tt.month, days[0], days[len(days)-1])
		}
	}
}

func TestMonthCounts(t *testing.T) {
	t.Parallel()

	due := at(time.UTC, 2026, 6, 3, 12)
	counts := Month([]models.Task{span("1", at(time.UTC, 2026, 5, 30, 8), &due)}, 2026, time.June, time.UTC)
	want := map[int]int{1: 1, 2: 1, 3: 1, 4: 0}
	for day, n := range want {
		if got := counts[day-1].Tasks; got != n {
			t.Errorf("June %d: %d tasks, want %d", day, got, n)
		}
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	d, err := ParseDay("2026-07-09", loc)
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if !d.Equal(time.Date(2026, 7, 9, 0, 0, 0, 0, loc)) {
		t.Errorf("ParseDay = %v", d)
	}
	if _, err := ParseDay("July 9", loc); err == nil {
		t.Error("expected an error for a non-ISO date")
	}
}

func ptr(t time.Time) *time.Time { return &t }
