package core

import "context"

type (
	// User is a locally registered account. PasswordHash is a bcrypt hash
	// and must never appear in a Session or an HTTP response.
	User struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		PasswordHash string `json:"passwordHash"`
	}

	// Session is the reduced, secret-free view of the authenticated user.
	Session struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// UserStore persists the local user table. Email uniqueness is enforced
	// by the session manager before CreateUser is called.
	UserStore interface {
		CreateUser(ctx context.Context, user *User) error

		// FindUserByEmail returns (nil, nil) when no user has the email.
		FindUserByEmail(ctx context.Context, email string) (*User, error)

		// FindUserByID returns (nil, nil) when no user has the id.
		FindUserByID(ctx context.Context, id string) (*User, error)
	}

	// SessionStore persists at most one active session as a whole value.
	SessionStore interface {
		SaveSession(ctx context.Context, session *Session) error

		// LoadSession returns (nil, nil) when no session is stored and an
		// error when the stored value cannot be decoded.
		LoadSession(ctx context.Context) (*Session, error)

		ClearSession(ctx context.Context) error
	}
)
