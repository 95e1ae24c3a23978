// Package session holds the authenticated user's token and profile.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"financeai/internal/core"
	"financeai/internal/log"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store owns the session state and mirrors every change to its Storage.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *log.Logger
	token   string
	user    *core.User
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentSession) }
}

// NewStore loads any persisted session from storage. A user record that can
// no longer be parsed is dropped from storage and treated as absent.
func NewStore(storage Storage, opts ...Option) (*Store, error) {
	s := &Store{storage: storage, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	token, ok, err := storage.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if ok {
		s.token = token
	}

	raw, ok, err := storage.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if ok && raw != "" {
		var u core.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn("Discarding unreadable stored user", log.FieldError, err)
			if err := storage.Delete(KeyUser); err != nil {
				return nil, fmt.Errorf("clear user: %w", err)
			}
		} else {
			s.user = &u
		}
	}
	return s, nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Login overwrites the session. An empty token or nil user clears that key.
func (s *Store) Login(token string, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setToken(token); err != nil {
		return err
	}
	return s.setUser(user)
}

// Logout clears both the token and the user.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setToken(""); err != nil {
		return err
	}
	return s.setUser(nil)
}

func (s *Store) setToken(token string) error {
	if token == "" {
		if err := s.storage.Delete(KeyToken); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
	} else if err := s.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.token = token
	return nil
}

func (s *Store) setUser(user *core.User) error {
	if user == nil {
		if err := s.storage.Delete(KeyUser); err != nil {
			return fmt.Errorf("clear user: %w", err)
		}
		s.user = nil
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.storage.Set(KeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	u := *user
	s.user = &u
	return nil
}
