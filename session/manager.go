package session

import (
	"context"
	"sync"
	"time"

	"gallery-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// State describes where the manager is in the authentication lifecycle.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Manager owns the current session. It verifies credentials against the
// stored user table and keeps the in-memory session in sync with the
// persisted one. Authentication failures are reported as a boolean; only
// the operations themselves decide what the caller is told.
type Manager struct {
	users    core.UserStore
	sessions core.SessionStore
	latency  time.Duration

	mu      sync.RWMutex
	state   State
	current *core.Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLatency adds a fixed delay to Login and Register, emulating the
// round-trip of a remote identity service.
func WithLatency(d time.Duration) Option {
	return func(m *Manager) { m.latency = d }
}

// NewManager creates a Manager and hydrates it from the persisted session.
// A corrupt persisted value, or one referencing a user no longer in the
// table, is cleared and the manager starts anonymous.
func NewManager(ctx context.Context, users core.UserStore, sessions core.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		users:    users,
		sessions: sessions,
		state:    StateAnonymous,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.hydrate(ctx)
	return m
}

func (m *Manager) hydrate(ctx context.Context) {
	sess, err := m.sessions.LoadSession(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Persisted session is corrupt, clearing it")
		m.clearPersisted(ctx)
		return
	}
	if sess == nil {
		return
	}

	user, err := m.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		logrus.WithError(err).Error("Failed to verify persisted session user")
		return
	}
	if user == nil {
		logrus.WithField("user_id", sess.UserID).Warn("Persisted session references an unknown user, clearing it")
		m.clearPersisted(ctx)
		return
	}

	m.mu.Lock()
	m.current = sess
	m.state = StateAuthenticated
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns a copy of the active session, or nil when anonymous.
func (m *Manager) Current() *core.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	sess := *m.current
	return &sess
}

// Login verifies email and password against the user table. On success the
// reduced user becomes the active session, is persisted, and true is
// returned. On failure the manager returns to its prior state.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	prevState, prevSession := m.snapshot()
	m.setState(StateAuthenticating)
	m.wait(ctx)

	user, err := m.users.FindUserByEmail(ctx, email)
	if err != nil {
		logrus.WithError(err).Error("Failed to look up user by email")
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		logrus.WithField("email", email).Info("Login failed")
		m.restore(prevState, prevSession)
		return false
	}

	m.activate(ctx, &core.Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	logrus.WithField("username", user.Username).Info("Login successful")
	return true
}

// Register creates a new user and logs them in. Returns false without
// mutating the user table when the email is already taken.
func (m *Manager) Register(ctx context.Context, username, email, password string) bool {
	prevState, prevSession := m.snapshot()
	m.setState(StateAuthenticating)
	m.wait(ctx)

	existing, err := m.users.FindUserByEmail(ctx, email)
	if err != nil {
		logrus.WithError(err).Error("Failed to check for existing user")
		m.restore(prevState, prevSession)
		return false
	}
	if existing != nil {
		logrus.WithField("email", email).Info("Registration rejected, email already in use")
		m.restore(prevState, prevSession)
		return false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		m.restore(prevState, prevSession)
		return false
	}

	user := &core.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := m.users.CreateUser(ctx, user); err != nil {
		logrus.WithError(err).Error("Failed to create user")
		m.restore(prevState, prevSession)
		return false
	}

	m.activate(ctx, &core.Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	logrus.WithField("username", username).Info("Registration successful")
	return true
}

// Logout clears the in-memory and persisted session. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.clearPersisted(ctx)
	m.mu.Lock()
	m.current = nil
	m.state = StateAnonymous
	m.mu.Unlock()
}

func (m *Manager) activate(ctx context.Context, sess *core.Session) {
	if err := m.sessions.SaveSession(ctx, sess); err != nil {
		logrus.WithError(err).Error("Failed to persist session")
	}
	m.mu.Lock()
	m.current = sess
	m.state = StateAuthenticated
	m.mu.Unlock()
}

func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.sessions.ClearSession(ctx); err != nil {
		logrus.WithError(err).Error("Failed to clear persisted session")
	}
}

func (m *Manager) snapshot() (State, *core.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.current
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *Manager) restore(state State, sess *core.Session) {
	m.mu.Lock()
	m.state = state
	m.current = sess
	m.mu.Unlock()
}

func (m *Manager) wait(ctx context.Context) {
	if m.latency <= 0 {
		return
	}
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
	}
}
