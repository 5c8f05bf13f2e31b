package core

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

const bootstrapUsername = "admin"

// BootstrapUser adds an initial user with a generated password when no
// credentials were loaded. It does nothing if any user exists or bootstrap
// is disabled. Only the bcrypt hash is kept in memory.
func BootstrapUser(cfg Config, creds []Credential) ([]Credential, error) {
	if !cfg.BootstrapUserEnabled || len(creds) > 0 {
		return creds, nil
	}

	password, err := generatePassword(32)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if cfg.InitialPasswordPath != "" {
		if err := os.WriteFile(cfg.InitialPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return nil, err
		}
		log.Printf("[auth] initial user %q created; password written to %s", bootstrapUsername, cfg.InitialPasswordPath)
	} else {
		log.Printf("[auth] initial user created username=%s password=%s", bootstrapUsername, password)
	}

	return append(creds, Credential{Username: bootstrapUsername, PasswordHash: string(hash)}), nil
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	// base64 expands, so length raw bytes always yield enough characters
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
