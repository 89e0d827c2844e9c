// Package session owns the lifecycle of the task cache: it fills it on
// sign-in, refreshes it on demand and empties it on sign-out.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/auth"
	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/categories"
	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/models"
)

// Backend is the part of the task service the session reads from
type Backend interface {
	Me(ctx context.Context) (models.User, error)
	List(ctx context.Context) ([]models.Task, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, name, email, password string) (string, models.User, error)
}

// Credentials holds the auth token and reports changes to it
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Revoke(ctx context.Context) error
	Subscribe() chan auth.Event
	Unsubscribe(ch chan auth.Event)
}

// Snapshots keeps an offline copy of the last fetched list
type Snapshots interface {
	SaveTasks(tasks []models.Task) error
	ClearTasks() error
	MarkSnapshot(at time.Time) error
}

// State is what the front-end renders besides the task list
type State struct {
	Loading  bool
	Err      string
	User     models.User
	SignedIn bool
	LastSync time.Time
}

// Session ties the cache to the signed-in account
type Session struct {
	store   *cache.Store
	backend Backend
	creds   Credentials
	snaps   Snapshots
	now     func() time.Time
	log     *slog.Logger

	mu    sync.RWMutex
	state State
}

// Option configures a Session
type Option func(*Session)

// WithSnapshots saves every successful refresh for offline viewing
func WithSnapshots(s Snapshots) Option {
	return func(sess *Session) { sess.snaps = s }
}

// WithClock overrides the clock used for LastSync
func WithClock(now func() time.Time) Option {
	return func(sess *Session) { sess.now = now }
}

// New creates a session over store
func New(store *cache.Store, backend Backend, creds Credentials, opts ...Option) *Session {
	s := &Session{
		store:   store,
		backend: backend,
		creds:   creds,
		now:     time.Now,
		log:     logging.Logger("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentUser returns the signed-in account
func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User, s.state.SignedIn
}

// Start performs the initial credential check. Without a token the cache is
// emptied; otherwise it is filled from the backend.
func (s *Session) Start(ctx context.Context) error {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		s.reset("")
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads the current user and the task list. Missing credentials
// and connectivity failures leave an empty cache without an error; other
// failures empty the cache, set State().Err and are returned.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	user, err := s.backend.Me(ctx)
	if err != nil {
		return s.readFailed(err)
	}
	tasks, err := s.backend.List(ctx)
	if err != nil {
		return s.readFailed(err)
	}

	s.store.ReplaceAll(tasks)
	now := s.now()
	s.mu.Lock()
	s.state = State{User: user, SignedIn: true, LastSync: now}
	s.mu.Unlock()

	if s.snaps != nil {
		if err := s.snaps.SaveTasks(tasks); err != nil {
			s.log.Warn("save offline snapshot", "error", err)
		} else if err := s.snaps.MarkSnapshot(now); err != nil {
			s.log.Warn("mark offline snapshot", "error", err)
		}
	}
	s.log.Info("cache refreshed", "tasks", len(tasks))
	return nil
}

func (s *Session) readFailed(err error) error {
	if api.IsNoData(err) {
		s.log.Info("no data available", "error", err)
		s.reset("")
		return nil
	}
	msg := api.Message(err, "Failed to load tasks")
	s.log.Error("refresh failed", "error", err)
	s.reset(msg)
	return fmt.Errorf("refresh: %w", err)
}

// reset empties the cache and forgets the user
func (s *Session) reset(errMsg string) {
	s.store.Clear()
	s.mu.Lock()
	s.state = State{Err: errMsg}
	s.mu.Unlock()
}

// Run follows credential changes until ctx is done: sign-in refreshes the
// cache, sign-out empties it.
func (s *Session) Run(ctx context.Context) error {
	events := s.creds.Subscribe()
	defer s.creds.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.log.Debug("credential event", "kind", e.Kind.String())
			switch e.Kind {
			case auth.SignedIn:
				_ = s.Refresh(ctx)
			case auth.SignedOut:
				s.reset("")
			}
		}
	}
}

// SignIn exchanges credentials for a token and stores it
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	token, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return s.creds.Set(ctx, token)
}

// SignUp registers an account and signs in with it
func (s *Session) SignUp(ctx context.Context, name, email, password string) (models.User, error) {
	token, user, err := s.backend.SignUp(ctx, name, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.creds.Set(ctx, token); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SignOut discards the credential, the cache and the offline snapshot
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.creds.Revoke(ctx); err != nil {
		return err
	}
	s.reset("")
	if s.snaps != nil {
		if err := s.snaps.ClearTasks(); err != nil {
			return fmt.Errorf("clear offline snapshot: %w", err)
		}
	}
	return nil
}

// Categories returns the category aggregates of the tasks visible to the
// signed-in user
func (s *Session) Categories() []categories.Aggregate {
	user, ok := s.CurrentUser()
	if !ok {
		return nil
	}
	return categories.ForUser(s.store.List(), user)
}
