package core

import "context"

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// IdentitySource exposes the current caller to the scoped storage layer.
type IdentitySource interface {
	CurrentUsername(ctx context.Context) string
}

// ContextIdentitySource reads the identity from the request context.
type ContextIdentitySource struct{}

// CurrentUsername returns "" when no identity is attached.
func (ContextIdentitySource) CurrentUsername(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := IdentityFromContext(ctx)
	return id.Username
}
