package core

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCredentialStoreValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	store, err := NewCredentialStore([]Credential{
		{Username: "testuser", Password: "1234"},
		{Username: "bob", PasswordHash: string(hash)},
	})
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}

	cases := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"registered", "testuser", "1234", true},
		{"wrong password", "testuser", "4321", false},
		{"case sensitive password", "testuser", "1234 ", false},
		{"case sensitive username", "TestUser", "1234", false},
		{"unknown user", "mallory", "1234", false},
		{"empty both", "", "", false},
		{"bcrypt match", "bob", "hashed-secret", true},
		{"bcrypt mismatch", "bob", "Hashed-secret", false},
		{"empty password for registered user", "testuser", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := store.Validate(tc.username, tc.password); got != tc.want {
				t.Fatalf("Validate(%q, %q) = %v, want %v", tc.username, tc.password, got, tc.want)
			}
		})
	}
}

func TestNewCredentialStoreRejectsDuplicates(t *testing.T) {
	_, err := NewCredentialStore([]Credential{
		{Username: "alice", Password: "a"},
		{Username: "alice", Password: "b"},
	})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestNewCredentialStoreRejectsUnsafeUsernames(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "a:b", "../etc"} {
		_, err := NewCredentialStore([]Credential{{Username: name, Password: "x"}})
		if !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("username %q: expected ErrInvalidUsername, got %v", name, err)
		}
	}
}

func TestNewCredentialStoreRejectsMissingPassword(t *testing.T) {
	cases := []struct {
		name string
		cred Credential
	}{
		{"neither field", Credential{Username: "carol"}},
		{"blank hash", Credential{Username: "carol", PasswordHash: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewCredentialStore([]Credential{tc.cred})
			if !errors.Is(err, ErrMissingPassword) {
				t.Fatalf("expected ErrMissingPassword, got %v", err)
			}
			if store != nil {
				t.Fatalf("expected no store")
			}
		})
	}
}
