package core

import (
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const basicRealm = `Basic realm="simple-file"`

// BasicAuthGate turns an Authorization header value into an AuthResult.
type BasicAuthGate struct {
	creds CredentialValidator
}

func NewBasicAuthGate(creds CredentialValidator) *BasicAuthGate {
	return &BasicAuthGate{creds: creds}
}

// Authenticate decides on a single header value. An empty value is treated
// as an absent header. It never returns an error; failures are typed reasons.
func (g *BasicAuthGate) Authenticate(header string) AuthResult {
	username, password, err := parseBasicCredentials(header)
	if err != nil {
		return AuthResult{Reason: InvalidHeader}
	}
	if !g.creds.Validate(username, password) {
		return AuthResult{Reason: InvalidCredentials}
	}
	return AuthResult{Identity: Identity{Username: username}}
}

// parseBasicCredentials parses "Basic <base64(user:pass)>". Every parse or
// decode fault collapses into ErrInvalidAuthHeader.
func parseBasicCredentials(header string) (string, string, error) {
	scheme, param, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", ErrInvalidAuthHeader
	}
	param = strings.TrimSpace(param)
	if param == "" || strings.ContainsAny(param, " \t") {
		return "", "", ErrInvalidAuthHeader
	}
	raw, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		return "", "", ErrInvalidAuthHeader
	}
	decoded := string(raw)
	if !utf8.ValidString(decoded) {
		return "", "", ErrInvalidAuthHeader
	}
	username, password, ok := strings.Cut(decoded, ":")
	if !ok {
		return "", "", ErrInvalidAuthHeader
	}
	return username, password, nil
}

// BasicAuthMiddleware authenticates every request and attaches the identity
// to the request context. Rejected requests get 401 with the reason as message.
func BasicAuthMiddleware(gate *BasicAuthGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := gate.Authenticate(c.GetHeader("Authorization"))
		if !res.Authenticated() {
			if res.Reason == InvalidCredentials {
				log.Printf("[auth] rejected credentials from %s", c.ClientIP())
			}
			c.Header("WWW-Authenticate", basicRealm)
			respondError(c, http.StatusUnauthorized, res.Reason.Code(), string(res.Reason))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), res.Identity))
		c.Next()
	}
}
