// Package session holds the authenticated user's token. A Session is created
// on login, passed by reference to every controller that talks to the backend,
// and destroyed on logout.
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/models"
)

// ErrNoSession is returned when an operation needs a logged-in user.
var ErrNoSession = errors.New("no active session, please log in")

// Session is an authenticated user and their bearer token.
type Session struct {
	ID        uuid.UUID   `json:"id"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`

	destroyed atomic.Bool
}

// Valid reports whether the session can still be used for requests.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && !s.destroyed.Load()
}

// BearerToken returns the token, or ErrNoSession once the session is destroyed.
func (s *Session) BearerToken() (string, error) {
	if !s.Valid() {
		return "", ErrNoSession
	}
	return s.Token, nil
}

// Store persists a session between runs.
type Store interface {
	Save(s *Session) error
	// Load returns ErrNoSession when nothing is stored.
	Load() (*Session, error)
	Delete() error
}

// Manager owns the session lifecycle.
type Manager struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Session
}

// NewManager creates a Manager persisting through store.
func NewManager(store Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Create starts a session for user after a successful login and persists it.
// Any previous session is destroyed first.
func (m *Manager) Create(user models.User, token string) (*Session, error) {
	if token == "" {
		return nil, errors.New("login response did not include a token")
	}

	s := &Session{
		ID:        uuid.New(),
		Token:     token,
		User:      user,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(s); err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist session")
		return nil, err
	}
	if m.current != nil {
		m.current.destroyed.Store(true)
	}
	m.current = s

	m.logger.Info().
		Str("session_id", s.ID.String()).
		Str("user", user.Email).
		Str("role", user.Role).
		Msg("Session created")
	return s, nil
}

// Restore loads a previously persisted session. It returns ErrNoSession if
// there is none.
func (m *Manager) Restore() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Valid() {
		return m.current, nil
	}

	s, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			m.logger.Error().Err(err).Msg("Failed to load stored session")
		}
		return nil, err
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	m.current = s

	m.logger.Debug().Str("session_id", s.ID.String()).Msg("Session restored")
	return s, nil
}

// Destroy invalidates the current session and removes it from the store.
// Controllers still holding the session see it become invalid.
func (m *Manager) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.destroyed.Store(true)
		m.logger.Info().Str("session_id", m.current.ID.String()).Msg("Session destroyed")
		m.current = nil
	}

	if err := m.store.Delete(); err != nil {
		m.logger.Error().Err(err).Msg("Failed to delete stored session")
		return err
	}
	return nil
}
