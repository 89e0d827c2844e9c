package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/ui/views"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show progress per category",
	Args:  cobra.NoArgs,
	RunE:  withApp(runCategories),
}

func init() {
	categoriesCmd.Flags().Bool("server", false, "Use the server's aggregates instead of computing them locally")
}

func runCategories(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	aggs := a.session.Categories()
	if server, _ := cmd.Flags().GetBool("server"); server {
		remote, err := a.client.Categories(ctx)
		if err != nil {
			return errors.New(api.Message(err, "Failed to load categories"))
		}
		aggs = aggs[:0]
		for _, c := range remote {
			aggs = append(aggs, categories.Aggregate{
				ID:         c.ID,
				Name:       c.Name,
				Count:      c.ProjectCount,
				Percentage: c.Percentage,
				Gradient:   c.GradientColors,
			})
		}
	}
	renderCategories(cmd.OutOrStdout(), aggs)
	return nil
}

const barWidth = 20

func renderCategories(w io.Writer, aggs []categories.Aggregate) {
	if len(aggs) == 0 {
		fmt.Fprintln(w, "No categories")
		return
	}
	for _, a := range aggs {
		bar := views.GradientBar(a.Gradient, a.Percentage, barWidth)
		fmt.Fprintf(w, "%-20s %s %3d%%  %d tasks\n", a.Name, bar, a.Percentage, a.Count)
	}
}
