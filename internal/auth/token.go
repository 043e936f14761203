package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/infrastructure/firebase"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/sirupsen/logrus"
)

var ErrNotSignedIn error = apperrors.New(apperrors.Authentication, "", errors.New("not signed in"))

// State is where the manager is in resolving a usable access token.
type State int

const (
	Unresolved State = iota
	Resolving
	Resolved
	Degraded
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Degraded:
		return "degraded"
	}
	return "unknown"
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*firebase.Token, error)
}

// Manager owns the device session and the access token handed to remote calls.
// Start makes exactly one refresh attempt; there is no background refresh.
type Manager struct {
	sessions  store.SessionStore
	refresher Refresher
	log       logrus.FieldLogger
	now       func() time.Time

	mu      sync.RWMutex
	state   State
	session *store.SessionRecord
	started bool
}

func NewManager(sessions store.SessionStore, refresher Refresher, log logrus.FieldLogger) *Manager {
	return &Manager{
		sessions:  sessions,
		refresher: refresher,
		log:       logging.Component(log, "auth"),
		now:       time.Now,
	}
}

// Start loads the cached session and refreshes its access token. Failures never
// surface: a refresh error leaves the manager Degraded on the stored token, and a
// cache error leaves it signed out. Calls after the first return the current state.
func (m *Manager) Start(ctx context.Context) State {
	m.mu.Lock()
	if m.started {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.started = true
	m.mu.Unlock()

	record, err := m.sessions.GetSession(ctx)
	if err != nil {
		m.log.WithError(err).Warn("failed to load session, continuing signed out")
		return m.State()
	}
	if record == nil {
		return m.State()
	}

	if record.RefreshToken == "" {
		m.set(Degraded, record)
		m.log.Warn("session has no refresh token, using stored access token")
		return Degraded
	}

	m.set(Resolving, record)

	token, err := m.refresher.RefreshToken(ctx, record.RefreshToken)
	if err != nil {
		m.set(Degraded, record)
		m.log.WithError(err).Warn("token refresh failed, using stored access token")
		return Degraded
	}

	refreshed := *record
	refreshed.Token = token.AccessToken
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	refreshed.CreatedAt = m.now()
	if err := m.sessions.SaveSession(ctx, refreshed); err != nil {
		m.log.WithError(err).Warn("failed to persist refreshed session")
	}

	m.set(Resolved, &refreshed)
	m.log.WithField("user_id", refreshed.LocalID).Info("session resolved")
	return Resolved
}

// Establish stores a freshly signed-in session, replacing any previous one.
func (m *Manager) Establish(ctx context.Context, record store.SessionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = m.now()
	}
	if err := m.sessions.SaveSession(ctx, record); err != nil {
		return err
	}

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	m.set(Resolved, &record)
	return nil
}

// Logout forgets the session in memory even when clearing the cache fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.set(Unresolved, nil)
	return m.sessions.ClearSession(ctx)
}

func (m *Manager) set(state State, record *store.SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	if record == nil {
		m.session = nil
		return
	}
	copied := *record
	m.session = &copied
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns a copy of the current session, or nil when signed out.
func (m *Manager) Session() *store.SessionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

// AccessToken returns the token to send with remote calls. In the Degraded state it
// may already be expired.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.Token == "" {
		return "", false
	}
	return m.session.Token, true
}

func (m *Manager) Credentials() (userID, token string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.LocalID == "" || m.session.Token == "" {
		return "", "", false
	}
	return m.session.LocalID, m.session.Token, true
}

// RequireCredentials is Credentials with ErrNotSignedIn for the signed-out case.
func (m *Manager) RequireCredentials() (userID, token string, err error) {
	userID, token, ok := m.Credentials()
	if !ok {
		return "", "", ErrNotSignedIn
	}
	return userID, token, nil
}

func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.LocalID == "" {
		return "", false
	}
	return m.session.LocalID, true
}

// ExpiresAt reports when the current access token expires.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	token, ok := m.AccessToken()
	if !ok {
		return time.Time{}, false
	}
	return ExpiresAt(token)
}
