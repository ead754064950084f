package shared

import (
	"context"
	"time"
)

// Identity describes the authenticated caller attached to a request.
type Identity struct {
	ID    int64
	Name  string
	Email string
	Roles []Role

	// TokenID and ExpiresAt come from the presented token and drive
	// denylist bookkeeping on logout.
	TokenID   string
	ExpiresAt time.Time
}

// HasRole reports whether the identity holds the named unscoped role.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity holds the global admin role.
func (id *Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}

// IsFranchiseeOf reports whether the identity carries a franchisee role
// scoped to the given franchise.
func (id *Identity) IsFranchiseeOf(franchiseID int64) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r.Role == RoleFranchisee && r.ObjectID == franchiseID {
			return true
		}
	}
	return false
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
