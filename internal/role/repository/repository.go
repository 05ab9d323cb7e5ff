// Package repository persists roles.
package repository

import (
	"context"

	"projecthub/backend/internal/role/domain"
)

// Repository defines persistence for roles.
type Repository interface {
	// GetOrCreateRole returns the role row for name, creating it if absent.
	GetOrCreateRole(ctx context.Context, name domain.Name) (*domain.Role, error)
}
