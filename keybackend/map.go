// Package keybackend provides CredentialStore implementations for basic auth.
package keybackend

import (
	"fmt"

	"github.com/sagarc03/lfsgate"
)

// MapCredentialStore retrieves passwords from an in-memory map.
// Suitable for configuration file-based credentials.
type MapCredentialStore struct {
	users map[string]string
}

// NewMapCredentialStore creates a new map-based store with the given username to password mapping.
func NewMapCredentialStore(users map[string]string) *MapCredentialStore {
	return &MapCredentialStore{users: users}
}

// Lookup retrieves the password for the given username from the map.
func (s *MapCredentialStore) Lookup(username string) (string, error) {
	password, found := s.users[username]
	if !found {
		return "", fmt.Errorf("user not found: %w", lfsgate.ErrUnauthorized)
	}
	return password, nil
}

// Len returns the number of known users.
func (s *MapCredentialStore) Len() int {
	return len(s.users)
}
