package repository

import (
	"context"
	"database/sql"
	"errors"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/organization/domain"
)

const orgColumns = `id, name, slug, is_active, created_at, updated_at`

// PostgresRepository persists organizations in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	return scanOrg(r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

// GetOrganizationBySlug returns the organization with slug, or nil if not found.
func (r *PostgresRepository) GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	return scanOrg(r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
}

// CreateOrganization persists o. Returns domain.ErrSlugTaken when the slug is in use.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, slug, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, o.Slug, o.IsActive, o.CreatedAt, o.UpdatedAt)
	if db.IsUniqueViolation(err, "organizations_slug_key") {
		return domain.ErrSlugTaken
	}
	return err
}

// UpdateOrganization updates name, slug and active flag. Returns domain.ErrSlugTaken when the slug is in use.
func (r *PostgresRepository) UpdateOrganization(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE organizations SET name = $2, slug = $3, is_active = $4, updated_at = $5 WHERE id = $1`,
		o.ID, o.Name, o.Slug, o.IsActive, o.UpdatedAt)
	if db.IsUniqueViolation(err, "organizations_slug_key") {
		return domain.ErrSlugTaken
	}
	return err
}

// LockOrganization takes SELECT ... FOR UPDATE on the organization row.
func (r *PostgresRepository) LockOrganization(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `SELECT 1 FROM organizations WHERE id = $1 FOR UPDATE`, id)
	return err
}

func scanOrg(row *sql.Row) (*domain.Org, error) {
	var o domain.Org
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
