package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// usersFile is the on-disk layout of the YAML credential source.
//
//	users:
//	  - username: alice
//	    password: secret
//	  - username: bob
//	    password_hash: $2a$10$...
type usersFile struct {
	Users []Credential `yaml:"users"`
}

// ParseUsersYAML decodes credentials from YAML bytes.
func ParseUsersYAML(data []byte) ([]Credential, error) {
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users yaml: %w", err)
	}
	for i, u := range f.Users {
		if u.Password != "" && u.PasswordHash != "" {
			return nil, fmt.Errorf("user %d (%s): set either password or password_hash, not both", i, u.Username)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return nil, fmt.Errorf("user %d (%s): %w", i, u.Username, ErrMissingPassword)
		}
	}
	return f.Users, nil
}

// LoadUsersFile reads credentials from a YAML file.
func LoadUsersFile(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseUsersYAML(data)
}

// CredentialLister is implemented by persistent user sources.
type CredentialLister interface {
	ListCredentials(ctx context.Context) ([]Credential, error)
}

// LoadCredentials gathers credentials from the YAML file and, when given,
// the database. A missing YAML file is tolerated only when a database
// source is configured.
func LoadCredentials(ctx context.Context, usersFile string, db CredentialLister) ([]Credential, error) {
	var all []Credential
	if usersFile != "" {
		creds, err := LoadUsersFile(usersFile)
		switch {
		case err == nil:
			log.Printf("[auth] loaded %d users from %s", len(creds), usersFile)
			all = append(all, creds...)
		case errors.Is(err, fs.ErrNotExist) && db != nil:
			log.Printf("[auth] users file %s not found; using database only", usersFile)
		default:
			return nil, err
		}
	}
	if db != nil {
		creds, err := db.ListCredentials(ctx)
		if err != nil {
			return nil, fmt.Errorf("load users from database: %w", err)
		}
		log.Printf("[auth] loaded %d users from database", len(creds))
		all = append(all, creds...)
	}
	return all, nil
}

// LoadCredentialStore loads credentials from cfg.UsersFile and db, adds the
// bootstrap user when nothing was loaded, and freezes the result. A missing
// users file without a database is only tolerated while bootstrap is enabled.
func LoadCredentialStore(ctx context.Context, cfg Config, db CredentialLister) (*CredentialStore, error) {
	creds, err := LoadCredentials(ctx, cfg.UsersFile, db)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || !cfg.BootstrapUserEnabled {
			return nil, err
		}
		log.Printf("[auth] users file %s not found", cfg.UsersFile)
	}
	creds, err = BootstrapUser(cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("bootstrap user: %w", err)
	}
	return NewCredentialStore(creds)
}
