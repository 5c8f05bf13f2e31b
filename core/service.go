package core

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credential is a single registered user. Exactly one of Password or
// PasswordHash is expected to be set; PasswordHash holds a bcrypt hash.
type Credential struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// CredentialStore is an immutable username -> credential map built once at startup.
// It is safe for concurrent use.
type CredentialStore struct {
	users map[string]Credential
}

// NewCredentialStore builds the store, rejecting duplicate and unusable
// usernames as well as credentials without any password.
func NewCredentialStore(creds []Credential) (*CredentialStore, error) {
	users := make(map[string]Credential, len(creds))
	for _, c := range creds {
		if err := validateUsername(c.Username); err != nil {
			return nil, err
		}
		if c.Password == "" && c.PasswordHash == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPassword, c.Username)
		}
		if _, ok := users[c.Username]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, c.Username)
		}
		users[c.Username] = c
	}
	return &CredentialStore{users: users}, nil
}

// Len returns the number of registered users.
func (s *CredentialStore) Len() int {
	return len(s.users)
}

// Validate reports whether password matches the stored credential for username.
// Unknown usernames are a normal false result.
func (s *CredentialStore) Validate(username, password string) bool {
	u, ok := s.users[username]
	if !ok {
		return false
	}
	if u.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

// validateUsername ensures the name survives both Basic auth and use as a directory.
func validateUsername(name string) error {
	if strings.ContainsRune(name, ':') {
		return fmt.Errorf("%w: %q contains ':'", ErrInvalidUsername, name)
	}
	if !isSinglePathElement(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, name)
	}
	return nil
}
