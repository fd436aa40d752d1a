package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Admin          bool
}

type identityContextKey struct{}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext retrieves the caller identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}
