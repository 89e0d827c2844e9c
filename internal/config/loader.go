package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TASKDECK_API_BASE_URL
const EnvPrefix = "TASKDECK"

// Load builds the configuration from defaults, the YAML file at path (the
// default location when empty), a .env file in the working directory and
// TASKDECK_* environment variables, in increasing precedence. Missing files
// are not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.auth_header", cfg.API.AuthHeader)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("mutations.timeout", cfg.Mutations.Timeout)
	v.SetDefault("mutations.notice_ttl", cfg.Mutations.NoticeTTL)
	v.SetDefault("storage.db_path", cfg.Storage.DBPath)
	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.log_file", cfg.Telemetry.LogFile)
	v.SetDefault("ui.theme", cfg.UI.Theme)
}

// DefaultPath returns the config file under the XDG config directory
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taskdeck", "config.yaml")
}

// TelemetryPath returns the telemetry log file, defaulting under the XDG
// state directory
func (c *Config) TelemetryPath() string {
	if c.Telemetry.LogFile != "" {
		return c.Telemetry.LogFile
	}
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "taskdeck", "telemetry.log")
}
