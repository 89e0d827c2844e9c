// Package calendar places tasks on days. A task occupies every day from the
// one it was created on through the one it is due, compared by date only in
// the location of the day asked about.
package calendar

import (
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

// DayLayout is how days are written on the command line
const DayLayout = "2006-01-02"

// Day is midnight of t's date in loc
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay reads a YYYY-MM-DD date as a local day
func ParseDay(v string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, v, loc)
}

// Covers reports whether day falls within the task's span. Tasks without a
// due date are never on the calendar.
func Covers(t models.Task, day time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	loc := day.Location()
	d := Day(day, loc)
	return !d.Before(Day(t.CreatedAt, loc)) && !d.After(Day(*t.DueDate, loc))
}

// TasksOn returns the tasks whose span covers day, in input order
func TasksOn(tasks []models.Task, day time.Time) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if Covers(t, day) {
			out = append(out, t)
		}
	}
	return out
}

// MonthDays lists every day of the month at midnight in loc
func MonthDays(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	n := first.AddDate(0, 1, -1).Day()
	days := make([]time.Time, n)
	for i := range days {
		days[i] = time.Date(year, month, i+1, 0, 0, 0, 0, loc)
	}
	return days
}

// DayCount is the number of tasks on one day
type DayCount struct {
	Day   time.Time
	Tasks int
}

// Month counts the tasks on each day of the month
func Month(tasks []models.Task, year int, month time.Month, loc *time.Location) []DayCount {
	days := MonthDays(year, month, loc)
	out := make([]DayCount, len(days))
	for i, d := range days {
		out[i] = DayCount{Day: d, Tasks: len(TasksOn(tasks, d))}
	}
	return out
}
