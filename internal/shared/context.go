package shared

import "context"

// Role distinguishes platform operators from tenant users.
type Role string

const (
	// RoleAdmin grants access to all clients and management endpoints.
	RoleAdmin Role = "admin"
	// RoleClient restricts data access to the user's own client.
	RoleClient Role = "client"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Identity carries the authenticated caller recovered from a bearer token.
type Identity struct {
	UserID   int64
	Email    string
	Role     Role
	ClientID string
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
