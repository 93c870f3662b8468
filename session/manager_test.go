package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"gallery-server/core"
	"gallery-server/stores/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, interface {
	core.UserStore
	core.SessionStore
}) {
	t.Helper()
	store := memory.NewStore()
	return NewManager(context.Background(), store, store, opts...), store
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))
	require.Equal(t, StateAuthenticated, manager.State())

	registered := manager.Current()
	require.NotNil(t, registered)

	manager.Logout(ctx)
	require.Equal(t, StateAnonymous, manager.State())
	require.Nil(t, manager.Current())

	require.True(t, manager.Login(ctx, "a@x.com", "pw1"))
	sess := manager.Current()
	require.NotNil(t, sess)
	assert.Equal(t, registered.UserID, sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "a@x.com", sess.Email)
}

func TestLogin_WrongCredentials(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))
	manager.Logout(ctx)

	assert.False(t, manager.Login(ctx, "a@x.com", "wrong"))
	assert.False(t, manager.Login(ctx, "nobody@x.com", "pw1"))
	assert.Equal(t, StateAnonymous, manager.State())
	assert.Nil(t, manager.Current())
}

func TestLogin_FailureRestoresPriorSession(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))

	require.False(t, manager.Login(ctx, "a@x.com", "wrong"))
	assert.Equal(t, StateAuthenticated, manager.State())
	sess := manager.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "alice", sess.Username)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))
	manager.Logout(ctx)

	assert.False(t, manager.Register(ctx, "impostor", "a@x.com", "pw2"))
	assert.Equal(t, StateAnonymous, manager.State())

	// The table was not mutated: only the original credentials work.
	assert.False(t, manager.Login(ctx, "a@x.com", "pw2"))
	assert.True(t, manager.Login(ctx, "a@x.com", "pw1"))
	assert.Equal(t, "alice", manager.Current().Username)
}

func TestHydration_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first := NewManager(ctx, store, store)
	require.True(t, first.Register(ctx, "alice", "a@x.com", "pw1"))

	second := NewManager(ctx, store, store)
	require.Equal(t, StateAuthenticated, second.State())
	sess := second.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "alice", sess.Username)
}

func TestLogout_ClearsPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	first := NewManager(ctx, store, store)
	require.True(t, first.Register(ctx, "alice", "a@x.com", "pw1"))
	first.Logout(ctx)

	persisted, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, persisted)

	second := NewManager(ctx, store, store)
	assert.Equal(t, StateAnonymous, second.State())
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	manager.Logout(ctx)
	manager.Logout(ctx)
	assert.Equal(t, StateAnonymous, manager.State())
}

// corruptSessionStore simulates an undecodable persisted session value.
type corruptSessionStore struct {
	cleared bool
}

func (c *corruptSessionStore) SaveSession(ctx context.Context, session *core.Session) error {
	return nil
}

func (c *corruptSessionStore) LoadSession(ctx context.Context) (*core.Session, error) {
	if c.cleared {
		return nil, nil
	}
	return nil, errors.New("unexpected end of JSON input")
}

func (c *corruptSessionStore) ClearSession(ctx context.Context) error {
	c.cleared = true
	return nil
}

func TestHydration_CorruptSessionSelfHeals(t *testing.T) {
	ctx := context.Background()
	sessions := &corruptSessionStore{}
	manager := NewManager(ctx, memory.NewStore(), sessions)

	assert.Equal(t, StateAnonymous, manager.State())
	assert.True(t, sessions.cleared, "corrupt persisted value should be cleared")
}

func TestHydration_DanglingUserForcesLogout(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveSession(ctx, &core.Session{
		UserID:   "no-such-user",
		Username: "ghost",
		Email:    "g@x.com",
	}))

	manager := NewManager(ctx, store, store)
	assert.Equal(t, StateAnonymous, manager.State())

	persisted, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, persisted, "dangling session should be cleared")
}

func TestWithLatency(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t, WithLatency(10*time.Millisecond))

	start := time.Now()
	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestPasswordNeverStoredInPlaintext(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	manager := NewManager(ctx, store, store)
	require.True(t, manager.Register(ctx, "alice", "a@x.com", "pw1"))

	user, err := store.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "pw1")
}
