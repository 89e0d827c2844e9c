package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:3000",
			AuthHeader: "x-auth-token",
			Timeout:    30 * time.Second,
		},
		Mutations: MutationsConfig{
			Timeout:   15 * time.Second,
			NoticeTTL: 3 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// WriteDefault writes a commented default configuration file, creating its
// directory when needed
func WriteDefault(path string) error {
	content := `# taskdeck configuration

# Task backend
api:
  base_url: http://localhost:3000
  auth_header: x-auth-token
  timeout: 30s

# Optimistic writes
mutations:
  # Unanswered writes are rolled back after this long
  timeout: 15s
  # How long notices stay on screen
  notice_ttl: 3s

# Local state (auth token, theme, offline snapshot)
storage:
  db_path: ""  # Defaults to $XDG_DATA_HOME/taskdeck/taskdeck.db

# OpenTelemetry traces, metrics and logs, written to a file
telemetry:
  enabled: false
  log_file: ""  # Defaults to $XDG_STATE_HOME/taskdeck/telemetry.log

ui:
  theme: dark  # dark or light
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
