package domain

import (
	"errors"
	"time"

	roledomain "projecthub/backend/internal/role/domain"
)

var (
	// ErrDuplicateMembership is returned when the user already belongs to the organization.
	ErrDuplicateMembership = errors.New("user already belongs to organization")
	// ErrNoActiveMembership is returned when a user has no active membership to act under.
	ErrNoActiveMembership = errors.New("user is not associated with any active organization")
)

// Membership links a user to an organization with a role. There is at most one
// membership per (user, organization); it is the only source of tenant and role.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	RoleID    string
	Role      roledomain.Name
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member is a membership joined with the user profile, for listings.
type Member struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      roledomain.Name
	IsActive  bool
	JoinedAt  time.Time
}
