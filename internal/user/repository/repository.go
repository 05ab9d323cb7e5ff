package repository

import (
	"context"

	"projecthub/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// ListByOrg returns active users with an active membership in orgID, oldest first, and the total count.
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.User, int, error)
}
