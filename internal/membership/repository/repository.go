package repository

import (
	"context"

	"projecthub/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	CreateMembership(ctx context.Context, m *domain.Membership) error
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	// ListActiveByUser returns the user's active memberships in active organizations,
	// ordered by membership creation time then id.
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
	ListMembersByOrg(ctx context.Context, orgID string) ([]*domain.Member, error)
	// UpdateRole sets the role of the user's membership in orgID. Returns nil when no membership exists.
	UpdateRole(ctx context.Context, userID, orgID, roleID string) (*domain.Membership, error)
}
