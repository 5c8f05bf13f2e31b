package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type staticLister struct {
	creds []Credential
	err   error
}

func (l staticLister) ListCredentials(context.Context) ([]Credential, error) {
	return l.creds, l.err
}

const usersYAML = `
users:
  - username: testuser
    password: "1234"
  - username: bob
    password_hash: "$2a$10$abcdefghijklmnopqrstuu"
`

func TestParseUsersYAML(t *testing.T) {
	creds, err := ParseUsersYAML([]byte(usersYAML))
	if err != nil {
		t.Fatalf("ParseUsersYAML: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("len = %d, want 2", len(creds))
	}
	if creds[0].Username != "testuser" || creds[0].Password != "1234" {
		t.Fatalf("first = %+v", creds[0])
	}
	if creds[1].PasswordHash == "" || creds[1].Password != "" {
		t.Fatalf("second = %+v", creds[1])
	}
}

func TestParseUsersYAMLRejectsBothPasswordFields(t *testing.T) {
	_, err := ParseUsersYAML([]byte("users:\n  - username: a\n    password: x\n    password_hash: y\n"))
	if err == nil {
		t.Fatalf("expected error when both password fields are set")
	}
}

func TestParseUsersYAMLRejectsMissingPassword(t *testing.T) {
	for _, doc := range []string{
		"users:\n  - username: a\n",
		"users:\n  - username: a\n    password: \"\"\n",
		"users:\n  - username: a\n    password_hash: \"\"\n",
	} {
		if _, err := ParseUsersYAML([]byte(doc)); !errors.Is(err, ErrMissingPassword) {
			t.Fatalf("%q: err = %v, want ErrMissingPassword", doc, err)
		}
	}
}

func TestLoadCredentialStoreFromFileAndDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(usersYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := LoadCredentialStore(context.Background(), Config{UsersFile: path}, staticLister{creds: []Credential{{Username: "carol", Password: "c"}}})
	if err != nil {
		t.Fatalf("LoadCredentialStore: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
	}
	if !store.Validate("testuser", "1234") || !store.Validate("carol", "c") {
		t.Fatalf("expected users from both sources to validate")
	}
}

func TestLoadCredentialStoreMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadCredentialStore(context.Background(), Config{UsersFile: missing}, nil); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("without database: err = %v, want ErrNotExist", err)
	}

	store, err := LoadCredentialStore(context.Background(), Config{UsersFile: missing}, staticLister{creds: []Credential{{Username: "carol", Password: "c"}}})
	if err != nil {
		t.Fatalf("with database: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestLoadCredentialStoreDuplicateAcrossSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(usersYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCredentialStore(context.Background(), Config{UsersFile: path}, staticLister{creds: []Credential{{Username: "bob", Password: "b"}}})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("err = %v, want ErrDuplicateUser", err)
	}
}

func TestLoadCredentialStoreDatabaseError(t *testing.T) {
	_, err := LoadCredentialStore(context.Background(), Config{}, staticLister{err: errors.New("db down")})
	if err == nil {
		t.Fatalf("expected database error to propagate")
	}
}

func TestLoadCredentialStoreRejectsBlankDatabasePassword(t *testing.T) {
	store, err := LoadCredentialStore(context.Background(), Config{}, staticLister{creds: []Credential{{Username: "carol", PasswordHash: ""}}})
	if !errors.Is(err, ErrMissingPassword) {
		t.Fatalf("err = %v, want ErrMissingPassword", err)
	}
	if store != nil {
		t.Fatalf("store must not be built")
	}
}

func TestCredentialFromRow(t *testing.T) {
	if _, err := credentialFromRow("carol", ""); !errors.Is(err, ErrMissingPassword) {
		t.Fatalf("blank hash: err = %v, want ErrMissingPassword", err)
	}
	c, err := credentialFromRow("carol", "$2a$10$abcdefghijklmnopqrstuu")
	if err != nil {
		t.Fatalf("credentialFromRow: %v", err)
	}
	if c.Username != "carol" || c.PasswordHash == "" || c.Password != "" {
		t.Fatalf("credential = %+v", c)
	}
}

func TestLoadCredentialStoreBootstrapsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		UsersFile:            filepath.Join(dir, "nope.yaml"),
		BootstrapUserEnabled: true,
		InitialPasswordPath:  filepath.Join(dir, "initial_password.secret"),
	}
	store, err := LoadCredentialStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("LoadCredentialStore: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
	data, err := os.ReadFile(cfg.InitialPasswordPath)
	if err != nil {
		t.Fatalf("read secret: %v", err)
	}
	if !store.Validate(bootstrapUsername, strings.TrimSpace(string(data))) {
		t.Fatalf("bootstrap password does not validate")
	}
}

func TestLoadCredentialStoreSkipsBootstrapWhenUsersExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(usersYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := LoadCredentialStore(context.Background(), Config{UsersFile: path, BootstrapUserEnabled: true}, nil)
	if err != nil {
		t.Fatalf("LoadCredentialStore: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
}
