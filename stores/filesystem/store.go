package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gallery-server/core"

	"github.com/sirupsen/logrus"
)

const (
	artworksDir = "artworks"
	usersDir    = "users"
	sessionFile = "session.json"
)

// fsStore persists every record as its own JSON file under basePath, so an
// append never rewrites the rest of the list.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{basePath, filepath.Join(basePath, artworksDir), filepath.Join(basePath, usersDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) recordPath(dir, id string) (string, error) {
	// Ids are generated tokens, but reject anything path-like anyway.
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return filepath.Join(s.basePath, dir, id+".json"), nil
}

func (s *fsStore) writeRecord(dir, id string, v any) error {
	path, err := s.recordPath(dir, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", id, err)
	}
	return os.WriteFile(path, data, 0644)
}

// ArtworkStore implementation

func (s *fsStore) Append(ctx context.Context, artwork *core.Artwork) error {
	log := logrus.WithFields(logrus.Fields{
		"artwork_id": artwork.ID,
		"user_id":    artwork.UserID,
	})
	if err := s.writeRecord(artworksDir, artwork.ID, artwork); err != nil {
		log.WithError(err).Error("Failed to write artwork file")
		return err
	}
	log.Info("Artwork stored")
	return nil
}

func (s *fsStore) ListAll(ctx context.Context) ([]*core.Artwork, error) {
	dirPath := filepath.Join(s.basePath, artworksDir)
	log := logrus.WithField("path", dirPath)

	files, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.Artwork{}, nil
		}
		log.WithError(err).Error("Failed to read artworks directory")
		return nil, err
	}

	artworks := make([]*core.Artwork, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dirPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read artwork file %s, skipping", file.Name())
			continue
		}
		var artwork core.Artwork
		if err := json.Unmarshal(data, &artwork); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal artwork file %s, skipping", file.Name())
			continue
		}
		artworks = append(artworks, &artwork)
	}

	log.Debugf("Listed %d artworks", len(artworks))
	return artworks, nil
}

// UserStore implementation

func (s *fsStore) CreateUser(ctx context.Context, user *core.User) error {
	if err := s.writeRecord(usersDir, user.ID, user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to write user file")
		return err
	}
	logrus.WithField("user_id", user.ID).Info("User created")
	return nil
}

func (s *fsStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	dirPath := filepath.Join(s.basePath, usersDir)
	files, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dirPath, file.Name()))
		if err != nil {
			logrus.WithError(err).Warnf("Failed to read user file %s, skipping", file.Name())
			continue
		}
		var user core.User
		if err := json.Unmarshal(data, &user); err != nil {
			logrus.WithError(err).Warnf("Failed to unmarshal user file %s, skipping", file.Name())
			continue
		}
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (s *fsStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	path, err := s.recordPath(usersDir, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var user core.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}
	return &user, nil
}

// SessionStore implementation

func (s *fsStore) sessionPath() string {
	return filepath.Join(s.basePath, sessionFile)
}

func (s *fsStore) SaveSession(ctx context.Context, session *core.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return os.WriteFile(s.sessionPath(), data, 0644)
}

func (s *fsStore) LoadSession(ctx context.Context) (*core.Session, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *fsStore) ClearSession(ctx context.Context) error {
	err := os.Remove(s.sessionPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
