package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/taskdeck/internal/config"
	"github.com/tgienger/taskdeck/internal/db"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage taskdeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration and data file paths",
	Run:   runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "# Effective configuration (defaults + file + environment)")
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile()
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	fmt.Fprintf(out, "Config:    %s\n", configFile())
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath, _ = db.DefaultPath()
	}
	fmt.Fprintf(out, "Database:  %s\n", dbPath)
	fmt.Fprintf(out, "Telemetry: %s\n", cfg.TelemetryPath())
}

func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
