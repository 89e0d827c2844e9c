package config

import "time"

// Config represents the full taskdeck configuration
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Mutations MutationsConfig `yaml:"mutations" mapstructure:"mutations"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	UI        UIConfig        `yaml:"ui" mapstructure:"ui"`
}

// APIConfig locates the task backend
type APIConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	AuthHeader string        `yaml:"auth_header" mapstructure:"auth_header"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MutationsConfig tunes optimistic writes
type MutationsConfig struct {
	// Timeout after which an unanswered write is rolled back
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// NoticeTTL is how long success and failure notices stay on screen
	NoticeTTL time.Duration `yaml:"notice_ttl" mapstructure:"notice_ttl"`
}

// StorageConfig locates local state
type StorageConfig struct {
	// DBPath is the sqlite file; empty means the XDG data directory
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// TelemetryConfig controls the OpenTelemetry exporters
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// UIConfig holds terminal front-end preferences
type UIConfig struct {
	Theme string `yaml:"theme" mapstructure:"theme"`
}
