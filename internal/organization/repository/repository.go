package repository

import (
	"context"

	"projecthub/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error)
	GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Org, error)
	CreateOrganization(ctx context.Context, o *domain.Org) error
	UpdateOrganization(ctx context.Context, o *domain.Org) error
	// LockOrganization holds a row lock on the organization until the surrounding
	// transaction ends. Changes to one organization's memberships take it first.
	LockOrganization(ctx context.Context, id string) error
}
