package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/ui"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

// runUI starts the interactive board
func runUI(cmd *cobra.Command, args []string) error {
	return withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		theme := a.cfg.UI.Theme
		if saved, err := a.db.GetSetting(db.KeyTheme); err == nil && saved != "" {
			theme = saved
		}
		styles.SetTheme(theme)

		// a failed first load is shown in the status bar
		_ = a.session.Start(ctx)
		go func() {
			if err := a.session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Logger("cli").Warn("session loop stopped", "error", err)
			}
		}()

		model := ui.NewApp(ctx, a.session, a.store, a.orch, a.orch.Notices(), a.db)
		defer model.Close()
		model.SetInFlightTTL(a.cfg.Mutations.Timeout + a.cfg.Mutations.NoticeTTL)

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running application: %w", err)
		}
		return nil
	})(cmd, args)
}
