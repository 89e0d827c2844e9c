// Package auth keeps the opaque backend credential and announces sign-in and
// sign-out to interested components.
package auth

import (
	"context"
	"sync"

	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/logging"
)

// EventKind distinguishes credential changes
type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
)

func (k EventKind) String() string {
	if k == SignedIn {
		return "signed-in"
	}
	return "signed-out"
}

// Event reports a credential change
type Event struct {
	Kind EventKind
}

// Settings is the persistence the token store writes through
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// TokenStore persists the auth token and notifies subscribers when it changes
type TokenStore struct {
	settings Settings

	mu    sync.Mutex
	token string
	ready bool

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// NewTokenStore creates a store backed by settings
func NewTokenStore(settings Settings) *TokenStore {
	return &TokenStore{settings: settings, subs: make(map[chan Event]struct{})}
}

// Token returns the stored credential, or "" when signed out
func (s *TokenStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		token, err := s.settings.GetSetting(db.KeyAuthToken)
		if err != nil {
			return "", err
		}
		s.token, s.ready = token, true
	}
	return s.token, nil
}

// Set stores a new credential and announces the sign-in
func (s *TokenStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Revoke(ctx)
	}
	s.mu.Lock()
	if err := s.settings.SetSetting(db.KeyAuthToken, token); err != nil {
		s.mu.Unlock()
		return err
	}
	s.token, s.ready = token, true
	s.mu.Unlock()

	s.publish(Event{Kind: SignedIn})
	return nil
}

// Revoke discards the credential. Subscribers hear about it only when a
// credential was actually held.
func (s *TokenStore) Revoke(context.Context) error {
	s.mu.Lock()
	had := s.token != ""
	if !s.ready {
		stored, err := s.settings.GetSetting(db.KeyAuthToken)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		had = stored != ""
	}
	if err := s.settings.DeleteSetting(db.KeyAuthToken); err != nil {
		s.mu.Unlock()
		return err
	}
	s.token, s.ready = "", true
	s.mu.Unlock()

	if had {
		logging.Logger("auth").Info("credential discarded")
		s.publish(Event{Kind: SignedOut})
	}
	return nil
}

// Subscribe returns a channel of credential events
func (s *TokenStore) Subscribe() chan Event {
	ch := make(chan Event, 8)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription. Calling it twice is safe.
func (s *TokenStore) Unsubscribe(ch chan Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *TokenStore) publish(e Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
