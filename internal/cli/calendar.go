package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/calendar"
	"github.com/tgienger/taskdeck/internal/models"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM]",
	Short: "Show how many tasks run on each day of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runCalendar),
}

func runCalendar(cmd *cobra.Command, a *app, args []string) error {
	month := time.Now()
	if len(args) == 1 {
		m, err := time.ParseInLocation("2006-01", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid month %q, want YYYY-MM", args[0])
		}
		month = m
	}

	if err := a.requireSession(cmd.Context()); err != nil {
		return err
	}
	renderCalendar(cmd.OutOrStdout(), a.store.List(), month)
	return nil
}

func renderCalendar(w io.Writer, tasks []models.Task, month time.Time) {
	fmt.Fprintln(w, month.Format("January 2006"))
	busy := 0
	for _, d := range calendar.Month(tasks, month.Year(), month.Month(), time.Local) {
		if d.Tasks == 0 {
			continue
		}
		busy++
		fmt.Fprintf(w, "%s %s  %d tasks\n", d.Day.Format("Mon"), d.Day.Format(calendar.DayLayout), d.Tasks)
	}
	if busy == 0 {
		fmt.Fprintln(w, "You have no tasks this month")
	}
}
