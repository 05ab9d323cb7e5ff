package repository

import (
	"context"

	"projecthub/backend/internal/comment/domain"
)

// Repository defines persistence for comments. All methods are scoped to orgID.
type Repository interface {
	Create(ctx context.Context, c *domain.Comment) error
	// GetByID returns the comment, or nil if not found.
	GetByID(ctx context.Context, orgID, id string) (*domain.Comment, error)
	// ListByTask returns the task's comments, oldest first.
	ListByTask(ctx context.Context, orgID, taskID string) ([]*domain.Comment, error)
	Update(ctx context.Context, c *domain.Comment) error
	// Delete reports false when nothing matched.
	Delete(ctx context.Context, orgID, id string) (bool, error)
}
