package core

import (
	"errors"
)

// Identity is the verified caller attached to a request after authentication.
type Identity struct {
	Username string
}

// AuthFailure names why a request was not authenticated.
type AuthFailure string

const (
	// InvalidHeader covers a missing, malformed or undecodable Basic header.
	InvalidHeader AuthFailure = "Invalid Authorization Header"
	// InvalidCredentials means the header parsed but username/password did not match.
	InvalidCredentials AuthFailure = "wrong user credentials"
)

// Code returns the error code used in the JSON error envelope.
func (f AuthFailure) Code() string {
	switch f {
	case InvalidCredentials:
		return "INVALID_CREDENTIALS"
	default:
		return "INVALID_HEADER"
	}
}

// AuthResult is the outcome of one authentication attempt.
// Reason is empty when the caller was authenticated.
type AuthResult struct {
	Identity Identity
	Reason   AuthFailure
}

// Authenticated reports whether the result carries a verified identity.
func (r AuthResult) Authenticated() bool {
	return r.Reason == ""
}

var (
	// ErrInvalidAuthHeader is returned by the Basic header parser for every decode fault.
	ErrInvalidAuthHeader = errors.New("invalid authorization header")
	// ErrDuplicateUser is returned when two credentials share a username.
	ErrDuplicateUser = errors.New("duplicate username")
	// ErrInvalidUsername is returned for usernames that cannot be used as a directory name.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrMissingPassword is returned for a credential with neither a password nor a hash.
	ErrMissingPassword = errors.New("missing password")
)

// CredentialValidator answers whether a username/password pair is registered.
type CredentialValidator interface {
	Validate(username, password string) bool
}
