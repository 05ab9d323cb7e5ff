// Package rbac authenticates bearer tokens into a Principal and gates requests
// on tenant presence and role.
package rbac

import (
	"context"

	roledomain "projecthub/backend/internal/role/domain"
)

// Principal is the authenticated caller derived from a verified access token.
type Principal struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	OrgID     string
	Role      roledomain.Name
}

// HasRole reports whether the principal holds one of roles.
func (p *Principal) HasRole(roles ...roledomain.Name) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx and true if set; otherwise nil, false.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
