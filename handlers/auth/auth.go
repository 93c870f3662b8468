package auth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gallery-server/core"
	"gallery-server/session"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var jwtSecret []byte

// AppClaims represents the custom claims for the JWT. It carries the same
// fields as the reduced session, never the password hash.
type AppClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

func InitAuth() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string        `json:"token,omitempty"`
	User  *core.Session `json:"user"`
}

// HandleRegister creates a new account and logs it in. Duplicate emails are
// rejected without mutating the user table.
func HandleRegister(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := render.DecodeJSON(r.Body, &creds); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if creds.Username == "" || creds.Email == "" || creds.Password == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Username, email and password are required"})
			return
		}

		if !manager.Register(r.Context(), creds.Username, creds.Email, creds.Password) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": "Email already in use"})
			return
		}

		renderSession(w, r, manager.Current())
	}
}

// HandleLogin verifies credentials and returns the session with a token.
func HandleLogin(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := render.DecodeJSON(r.Body, &creds); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}
		if creds.Email == "" || creds.Password == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Email and password are required"})
			return
		}

		if !manager.Login(r.Context(), creds.Email, creds.Password) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Invalid email or password"})
			return
		}

		renderSession(w, r, manager.Current())
	}
}

// HandleLogout clears the active session. Idempotent.
func HandleLogout(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager.Logout(r.Context())
		render.JSON(w, r, map[string]string{"status": "logged out"})
	}
}

// HandleSession returns the current session, with a null user when anonymous.
func HandleSession(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, sessionResponse{User: manager.Current()})
	}
}

func renderSession(w http.ResponseWriter, r *http.Request, sess *core.Session) {
	token, err := CreateJWT(sess)
	if err != nil {
		logrus.WithError(err).Error("Failed to create JWT")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to create session token"})
		return
	}
	render.JSON(w, r, sessionResponse{Token: token, User: sess})
}

// CreateJWT mints a signed token from the reduced session.
func CreateJWT(sess *core.Session) (string, error) {
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)), // 1 week
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: sess.Username,
		Email:    sess.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
