// Package session issues session tokens, tracks which of them are still
// active and resolves the caller's identity for every request.
package session

import (
	"context"

	"github.com/akeren/archive-waitlist/internal/models"
)

type contextKey string

const identityContextKey contextKey = "session_identity"

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID    uint
	OpenID    string
	Email     string
	Role      models.UserRole
	SessionID string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.UserRoleAdmin
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity resolved for this request, or
// false for anonymous callers.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
