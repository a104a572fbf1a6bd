package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is the signed-in state of one interactive user. It starts
// unauthenticated and becomes authenticated only through Login.
type Session struct {
	ID            string
	User          string
	Authenticated bool
	CreatedAt     time.Time
	EndedAt       time.Time
}

// NewSession starts an unauthenticated session.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// Login checks the credentials with v. On failure the session is left
// signed out and ErrInvalidCredentials is returned.
func (s *Session) Login(v Verifier, username, password string) error {
	if !Authenticate(v, username, password) {
		s.Authenticated = false
		s.User = ""
		return ErrInvalidCredentials
	}
	s.Authenticated = true
	s.User = username
	s.EndedAt = time.Time{}
	return nil
}

// Logout ends the session.
func (s *Session) Logout() {
	s.Authenticated = false
	s.User = ""
	s.EndedAt = time.Now()
}

// Restore returns an authenticated session for a user whose identity was
// established elsewhere, such as a verified token or signed cookie.
func Restore(id, username string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, User: username, Authenticated: true, CreatedAt: time.Now()}
}
