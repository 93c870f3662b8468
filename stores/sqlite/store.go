package sqlite

import (
	"context"
	"database/sql"
	"log"
	"time"

	"gallery-server/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	artworkTableStmt := `
	CREATE TABLE IF NOT EXISTS artworks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT,
		artist TEXT,
		year TEXT,
		medium TEXT,
		description TEXT,
		image_url TEXT,
		created_at DATETIME
	);`
	if _, err = db.Exec(artworkTableStmt); err != nil {
		log.Fatalf("failed to create artworks table: %v", err)
	}

	userTableStmt := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);`
	if _, err = db.Exec(userTableStmt); err != nil {
		log.Fatalf("failed to create users table: %v", err)
	}

	// A single-row table holds the one active session.
	sessionTableStmt := `
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL
	);`
	if _, err = db.Exec(sessionTableStmt); err != nil {
		log.Fatalf("failed to create session table: %v", err)
	}

	return &sqliteStore{db}
}

// ArtworkStore implementation

func (s *sqliteStore) Append(ctx context.Context, artwork *core.Artwork) error {
	log := logrus.WithFields(logrus.Fields{
		"artwork_id": artwork.ID,
		"user_id":    artwork.UserID,
	})

	createdAt := artwork.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO artworks (id, user_id, title, artist, year, medium, description, image_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		artwork.ID, artwork.UserID, artwork.Title, artwork.Artist, artwork.Year, artwork.Medium, artwork.Description, artwork.ImageURL, createdAt)
	if err != nil {
		log.WithError(err).Error("Failed to insert artwork")
		return err
	}
	log.Info("Artwork stored")
	return nil
}

func (s *sqliteStore) ListAll(ctx context.Context) ([]*core.Artwork, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, artist, year, medium, description, image_url, created_at FROM artworks ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artworks := []*core.Artwork{}
	for rows.Next() {
		artwork := core.Artwork{Source: core.SourceUser}
		if err := rows.Scan(&artwork.ID, &artwork.UserID, &artwork.Title, &artwork.Artist, &artwork.Year,
			&artwork.Medium, &artwork.Description, &artwork.ImageURL, &artwork.CreatedAt); err != nil {
			logrus.WithError(err).Warn("Failed to scan artwork row, skipping")
			continue
		}
		artworks = append(artworks, &artwork)
	}
	return artworks, rows.Err()
}

// UserStore implementation

func (s *sqliteStore) CreateUser(ctx context.Context, user *core.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to insert user")
		return err
	}
	logrus.WithField("user_id", user.ID).Info("User created")
	return nil
}

func (s *sqliteStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.findUser(ctx, "SELECT id, username, email, password_hash FROM users WHERE email = ?", email)
}

func (s *sqliteStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	return s.findUser(ctx, "SELECT id, username, email, password_hash FROM users WHERE id = ?", id)
}

func (s *sqliteStore) findUser(ctx context.Context, query, arg string) (*core.User, error) {
	var user core.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// SessionStore implementation

func (s *sqliteStore) SaveSession(ctx context.Context, session *core.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, user_id, username, email) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, username = excluded.username, email = excluded.email`,
		session.UserID, session.Username, session.Email)
	return err
}

func (s *sqliteStore) LoadSession(ctx context.Context) (*core.Session, error) {
	var session core.Session
	err := s.db.QueryRowContext(ctx, "SELECT user_id, username, email FROM session WHERE id = 1").
		Scan(&session.UserID, &session.Username, &session.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *sqliteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1")
	return err
}
