package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Add or remove task comments",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Comment on a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  withApp(runCommentAdd),
}

var commentRmCmd = &cobra.Command{
	Use:   "rm <task-id> <index>",
	Short: "Delete a comment by its position (starting at 1)",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runCommentRm),
}

var commentListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "Show the comments on a task",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runCommentList),
}

func init() {
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentRmCmd)
	commentCmd.AddCommand(commentListCmd)
}

func runCommentAdd(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("comment text is empty")
	}
	if err := a.orch.AddComment(ctx, args[0], text); err != nil {
		return errors.New(api.Message(err, "Failed to add comment"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Comment added")
	return nil
}

func runCommentRm(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	index, err := strconv.Atoi(args[1])
	if err != nil || index < 1 {
		return fmt.Errorf("invalid comment position %q", args[1])
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.orch.DeleteComment(ctx, args[0], index-1); err != nil {
		return errors.New(api.Message(err, "Failed to delete comment"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Comment deleted")
	return nil
}

func runCommentList(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	task, ok := a.store.Get(args[0])
	if !ok {
		return fmt.Errorf("task %s not found", args[0])
	}
	out := cmd.OutOrStdout()
	if len(task.Comments) == 0 {
		fmt.Fprintln(out, "No comments")
		return nil
	}
	for i, c := range task.Comments {
		when := ""
		if c.CreatedAt != nil {
			when = " (" + c.CreatedAt.Local().Format(dateLayout) + ")"
		}
		fmt.Fprintf(out, "%d. %s%s: %s\n", i+1, c.Author, when, c.Text)
	}
	return nil
}
