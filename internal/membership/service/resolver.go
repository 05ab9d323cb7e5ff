// Package service resolves which organization and role a user acts under.
package service

import (
	"context"
	"fmt"

	"projecthub/backend/internal/membership/domain"
	roledomain "projecthub/backend/internal/role/domain"
)

// ErrNoActiveMembership is returned when the user has no usable membership.
var ErrNoActiveMembership = domain.ErrNoActiveMembership

// MembershipLister lists a user's active memberships in storage order.
type MembershipLister interface {
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
}

// Resolution is the tenant and role a user acts under.
type Resolution struct {
	OrgID string
	Role  roledomain.Name
}

// Resolver picks the membership a user acts under.
type Resolver struct {
	memberships MembershipLister
}

// NewResolver returns a Resolver reading memberships from repo.
func NewResolver(repo MembershipLister) *Resolver {
	return &Resolver{memberships: repo}
}

// ResolveMembership returns the organization and role of userID. When orgID is
// non-empty only a membership in that organization qualifies; otherwise the
// oldest active membership wins. Memberships in inactive organizations never qualify.
func (r *Resolver) ResolveMembership(ctx context.Context, userID, orgID string) (*Resolution, error) {
	list, err := r.memberships.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range list {
		if !m.IsActive || (orgID != "" && m.OrgID != orgID) {
			continue
		}
		if !m.Role.Valid() {
			return nil, fmt.Errorf("membership %s: %w", m.ID, roledomain.ErrUnknownRole)
		}
		return &Resolution{OrgID: m.OrgID, Role: m.Role}, nil
	}
	return nil, ErrNoActiveMembership
}
