// Package auth gates dashboard access behind a username/password check and
// carries the resulting signed-in state explicitly.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Default credentials used when no users are configured.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// Verifier decides whether a username/password pair may sign in.
type Verifier interface {
	Verify(username, password string) bool
}

// StaticVerifier accepts exactly one plain-text username/password pair.
type StaticVerifier struct {
	Username string
	Password string
}

// DefaultVerifier returns the built-in admin/admin123 verifier.
func DefaultVerifier() StaticVerifier {
	return StaticVerifier{Username: DefaultUsername, Password: DefaultPassword}
}

// Verify implements Verifier. Comparison is exact and case-sensitive.
func (v StaticVerifier) Verify(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(v.Password))
	return u&p == 1
}

// UserStore verifies against bcrypt password hashes keyed by username.
type UserStore struct {
	hashes map[string][]byte
}

// dummyHash is compared against when the username is unknown so that
// unknown and known users take similar time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("salescast"), bcrypt.MinCost)

// NewUserStore builds a UserStore from username -> bcrypt hash pairs.
func NewUserStore(users map[string]string) (*UserStore, error) {
	s := &UserStore{hashes: make(map[string][]byte, len(users))}
	for name, hash := range users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("user %q: invalid bcrypt hash: %w", name, err)
		}
		s.hashes[name] = []byte(hash)
	}
	return s, nil
}

// Verify implements Verifier.
func (s *UserStore) Verify(username, password string) bool {
	hash, ok := s.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Usernames returns the configured usernames, sorted.
func (s *UserStore) Usernames() []string {
	names := make([]string, 0, len(s.hashes))
	for n := range s.hashes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HashPassword returns a bcrypt hash suitable for the users config table.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// NewVerifier returns a UserStore when users are configured and the
// default verifier otherwise.
func NewVerifier(users map[string]string) (Verifier, error) {
	if len(users) == 0 {
		return DefaultVerifier(), nil
	}
	return NewUserStore(users)
}

// Authenticate reports whether the pair is accepted by v.
func Authenticate(v Verifier, username, password string) bool {
	return v.Verify(username, password)
}
