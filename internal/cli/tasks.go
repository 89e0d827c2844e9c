package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/calendar"
	"github.com/tgienger/taskdeck/internal/models"
)

const dateLayout = "2006-01-02"

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and edit tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your tasks",
	Args:  cobra.NoArgs,
	RunE:  withApp(runTasksList),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksAdd),
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksUpdate),
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksDone),
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runTasksRm),
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksRmCmd)

	tasksListCmd.Flags().Bool("mine", false, "Only tasks you created, including ones assigned to others")
	tasksListCmd.Flags().Bool("offline", false, "Show the last synced list without contacting the server")
	tasksListCmd.Flags().String("on", "", "Only tasks running on this day, from creation to due date (YYYY-MM-DD)")

	for _, c := range []*cobra.Command{tasksAddCmd, tasksUpdateCmd} {
		c.Flags().String("description", "", "Description")
		c.Flags().String("priority", "", "low, medium or high")
		c.Flags().String("status", "", "upcoming, in-progress, in-review or completed")
		c.Flags().String("due", "", "Due date (YYYY-MM-DD)")
		c.Flags().StringSlice("category", nil, "Category label (repeatable)")
		c.Flags().String("assignee", "", "Assignee email")
	}
	tasksUpdateCmd.Flags().String("title", "", "Title")
	tasksUpdateCmd.Flags().Bool("no-due", false, "Remove the due date")
}

func runTasksList(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filter := func(tasks []models.Task) []models.Task { return tasks }
	if v, _ := cmd.Flags().GetString("on"); v != "" {
		day, err := calendar.ParseDay(v, time.Local)
		if err != nil {
			return fmt.Errorf("invalid day %q, want YYYY-MM-DD", v)
		}
		filter = func(tasks []models.Task) []models.Task { return calendar.TasksOn(tasks, day) }
	}

	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		tasks, err := a.db.ListTasks()
		if err != nil {
			return err
		}
		if at, _ := a.db.SnapshotTime(); !at.IsZero() {
			fmt.Fprintf(out, "Last synced %s\n", at.Local().Format(time.DateTime))
		}
		renderTasks(out, filter(tasks))
		return nil
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	tasks := a.store.List()
	if mine, _ := cmd.Flags().GetBool("mine"); mine {
		var err error
		tasks, err = a.client.ListCreatedByMe(ctx)
		if err != nil {
			return errors.New(api.Message(err, "Failed to load tasks"))
		}
	}
	renderTasks(out, filter(tasks))
	return nil
}

func runTasksAdd(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	draft := models.Task{
		Title:    strings.TrimSpace(args[0]),
		Priority: models.PriorityMedium,
		Status:   models.StatusUpcoming,
	}
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	draft = patch.Apply(draft)

	saved, err := a.orch.Create(ctx, draft)
	if err != nil {
		return errors.New(api.Message(err, "Failed to create task"))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s\n", saved.ID)
	return nil
}

func runTasksUpdate(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return errors.New("nothing to change")
	}
	if err := a.orch.Update(ctx, args[0], patch); err != nil {
		return errors.New(api.Message(err, "Failed to update task"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task updated")
	return nil
}

func runTasksDone(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.orch.MarkDone(ctx, args[0]); err != nil {
		return errors.New(api.Message(err, "Failed to mark task as done"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task was successfully marked as done")
	return nil
}

func runTasksRm(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.orch.Delete(ctx, args[0]); err != nil {
		return errors.New(api.Message(err, "Failed to delete task"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task was successfully deleted")
	return nil
}

// patchFromFlags turns the changed flags into a partial update
func patchFromFlags(cmd *cobra.Command) (models.TaskPatch, error) {
	var p models.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		p.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		p.Description = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		prio := models.Priority(v)
		switch prio {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		default:
			return p, fmt.Errorf("invalid priority %q", v)
		}
		p.Priority = &prio
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		status, err := parseStatus(v)
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	if flags.Changed("due") {
		v, _ := flags.GetString("due")
		due, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return p, fmt.Errorf("invalid due date %q, want YYYY-MM-DD", v)
		}
		p.DueDate = &due
	}
	if flags.Lookup("no-due") != nil {
		p.ClearDueDate, _ = flags.GetBool("no-due")
	}
	if flags.Changed("category") {
		v, _ := flags.GetStringSlice("category")
		p.Categories = &v
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetString("assignee")
		p.Assignee = &v
	}
	return p, nil
}

func parseStatus(v string) (models.Status, error) {
	for _, s := range models.Statuses {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", v)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Local().Format(dateLayout)
		}
		rows = append(rows, []string{
			t.ID,
			t.Title,
			string(t.Status),
			string(t.Priority),
			due,
			strings.Join(t.Categories, ", "),
			strconv.Itoa(len(t.Comments)),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "STATUS", "PRIORITY", "DUE", "CATEGORIES", "COMMENTS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, tbl.String())
}
