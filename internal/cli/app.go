package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/auth"
	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/config"
	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/mutation"
	"github.com/tgienger/taskdeck/internal/session"
)

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	db      *db.DB
	tokens  *auth.TokenStore
	client  *api.Client
	store   *cache.Store
	session *session.Session
	orch    *mutation.Orchestrator

	shutdown func(context.Context) error
	logFile  *os.File
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}
	if cfg.Telemetry.Enabled {
		if err := a.startTelemetry(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Storage.DBPath != "" {
		a.db, err = db.Open(cfg.Storage.DBPath)
	} else {
		a.db, err = db.New()
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a.tokens = auth.NewTokenStore(a.db)
	a.client = api.New(cfg.API.BaseURL, a.tokens,
		api.WithAuthHeader(cfg.API.AuthHeader),
		api.WithTimeout(cfg.API.Timeout))
	a.store = cache.New()
	a.session = session.New(a.store, a.client, a.tokens, session.WithSnapshots(a.db))
	a.orch = mutation.New(a.store, a.client,
		mutation.WithIdentity(a.session),
		mutation.WithTimeout(cfg.Mutations.Timeout),
		mutation.WithNoticeTTL(cfg.Mutations.NoticeTTL))
	return a, nil
}

func (a *app) startTelemetry(ctx context.Context) error {
	path := a.cfg.TelemetryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open telemetry log: %w", err)
	}
	shutdown, err := logging.SetupOTelSDK(ctx, f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	a.logFile, a.shutdown = f, shutdown
	return nil
}

// Close flushes telemetry and releases the database
func (a *app) Close() error {
	var err error
	if a.shutdown != nil {
		err = errors.Join(err, a.shutdown(context.Background()))
	}
	if a.logFile != nil {
		err = errors.Join(err, a.logFile.Close())
	}
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	return err
}

// requireSession loads the cache, failing when there is nothing to work on
func (a *app) requireSession(ctx context.Context) error {
	if err := a.session.Start(ctx); err != nil {
		return err
	}
	if !a.session.State().SignedIn {
		return errors.New("not signed in, run 'taskdeck login' first")
	}
	return nil
}

// withApp wraps a command body with app setup and teardown
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
