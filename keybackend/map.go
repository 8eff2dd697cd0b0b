// Package keybackend provides credential stores for HTTP Basic authentication.
package keybackend

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sagarc03/fragments"
)

// MapUserStore verifies credentials against an in-memory map.
// Suitable for configuration file-based user storage.
type MapUserStore struct {
	users map[string]string
}

// NewMapUserStore creates a new map-based user store with the given username to secret mapping.
func NewMapUserStore(users map[string]string) *MapUserStore {
	return &MapUserStore{users: users}
}

// Len returns the number of users.
func (s *MapUserStore) Len() int {
	return len(s.users)
}

// Verify checks password against the stored secret for username. Failures
// wrap fragments.ErrUnauthorized.
func (s *MapUserStore) Verify(username, password string) error {
	secret, found := s.users[username]
	if !found {
		return fmt.Errorf("verify %q: %w: %w", username, ErrUserNotFound, fragments.ErrUnauthorized)
	}

	if isBcryptHash(secret) {
		if err := bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)); err != nil {
			return fmt.Errorf("verify %q: %w", username, fragments.ErrUnauthorized)
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(password)) != 1 {
		return fmt.Errorf("verify %q: %w", username, fragments.ErrUnauthorized)
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2")
}
