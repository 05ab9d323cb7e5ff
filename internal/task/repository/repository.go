package repository

import (
	"context"

	"projecthub/backend/internal/task/domain"
)

// Repository defines persistence for tasks. All methods are scoped to orgID.
type Repository interface {
	Create(ctx context.Context, t *domain.Task) error
	// GetByID returns the task, or nil if not found.
	GetByID(ctx context.Context, orgID, id string) (*domain.Task, error)
	// ListByBoard returns a page of the board's tasks ordered by position, and the total matching count.
	ListByBoard(ctx context.Context, orgID, boardID string, f domain.Filter, limit, offset int) ([]*domain.Task, int, error)
	Update(ctx context.Context, t *domain.Task) error
	// Delete removes the task and its comments. Reports false when nothing matched.
	Delete(ctx context.Context, orgID, id string) (bool, error)
}
