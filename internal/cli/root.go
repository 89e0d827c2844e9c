package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskdeck",
		Short: "taskdeck - tasks in your terminal",
		Long: `taskdeck is a terminal client for a shared task board.

Edits show up immediately and are confirmed with the server in the
background; rejected edits are rolled back.`,
		RunE:          runUI, // Default action is the interactive board
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/taskdeck/config.yaml)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(fakeServerCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
