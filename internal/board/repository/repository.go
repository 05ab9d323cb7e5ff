package repository

import (
	"context"

	"projecthub/backend/internal/board/domain"
)

// Repository defines persistence for boards. All methods are scoped to orgID.
type Repository interface {
	Create(ctx context.Context, b *domain.Board) error
	// GetByID returns the active board, or nil if not found.
	GetByID(ctx context.Context, orgID, id string) (*domain.Board, error)
	// ListByProject returns the project's active boards ordered by position.
	ListByProject(ctx context.Context, orgID, projectID string) ([]*domain.Board, error)
	Update(ctx context.Context, b *domain.Board) error
	// Deactivate reports false when no active board matched.
	Deactivate(ctx context.Context, orgID, id string) (bool, error)
}
