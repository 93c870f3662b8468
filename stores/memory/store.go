package memory

import (
	"context"
	"sync"

	"gallery-server/core"

	"github.com/sirupsen/logrus"
)

// memStore implements ArtworkStore, UserStore and SessionStore in memory.
// The mutex serializes appends, so concurrent submissions cannot drop each
// other the way a whole-list read-modify-write would.
type memStore struct {
	mu       sync.RWMutex
	artworks []*core.Artwork
	users    map[string]*core.User
	session  *core.Session
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		users: make(map[string]*core.User),
	}
}

// ArtworkStore implementation

func (s *memStore) Append(ctx context.Context, artwork *core.Artwork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *artwork
	s.artworks = append(s.artworks, &stored)
	logrus.WithFields(logrus.Fields{
		"artwork_id": artwork.ID,
		"user_id":    artwork.UserID,
	}).Info("Artwork stored")
	return nil
}

func (s *memStore) ListAll(ctx context.Context) ([]*core.Artwork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artworks := make([]*core.Artwork, 0, len(s.artworks))
	for _, artwork := range s.artworks {
		stored := *artwork
		artworks = append(artworks, &stored)
	}
	return artworks, nil
}

// UserStore implementation

func (s *memStore) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *user
	s.users[user.ID] = &stored
	logrus.WithField("user_id", user.ID).Info("User created")
	return nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	found := *user
	return &found, nil
}

// SessionStore implementation

func (s *memStore) SaveSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	s.session = &stored
	return nil
}

func (s *memStore) LoadSession(ctx context.Context) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	stored := *s.session
	return &stored, nil
}

func (s *memStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}
