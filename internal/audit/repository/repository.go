package repository

import (
	"context"

	"projecthub/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByOrg returns a page of the organization's entries, newest first, and the total matching count.
	ListByOrg(ctx context.Context, orgID string, f domain.Filter, limit, offset int) ([]*domain.AuditLog, int, error)
}
