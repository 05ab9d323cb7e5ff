package repository

import (
	"context"

	"projecthub/backend/internal/project/domain"
)

// Repository defines persistence for projects. Every read and write is scoped to
// orgID; rows of other organizations are reported as missing.
type Repository interface {
	// Create returns domain.ErrSlugTaken when the slug is already used in the organization.
	Create(ctx context.Context, p *domain.Project) error
	// GetByID returns the active project, or nil if not found.
	GetByID(ctx context.Context, orgID, id string) (*domain.Project, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.Project, int, error)
	// Update saves name, slug and description. Returns domain.ErrSlugTaken on a slug clash.
	Update(ctx context.Context, p *domain.Project) error
	// Deactivate marks the project inactive. Reports false when no active project matched.
	Deactivate(ctx context.Context, orgID, id string) (bool, error)
}
