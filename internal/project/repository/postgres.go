package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/project/domain"
)

const projectColumns = `id, organization_id, name, slug, description, is_active, created_by, created_at, updated_at`

const slugConstraint = "projects_org_slug_key"

// PostgresRepository persists projects in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a project repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the project. The project must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.OrgID, p.Name, p.Slug, p.Description, p.IsActive, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if db.IsUniqueViolation(err, slugConstraint) {
		return domain.ErrSlugTaken
	}
	return err
}

// GetByID returns the active project id of orgID, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE id = $1 AND organization_id = $2 AND is_active`, id, orgID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListByOrg returns a page of the organization's active projects, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.Project, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM projects WHERE organization_id = $1 AND is_active`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE organization_id = $1 AND is_active
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Update saves the editable fields of an active project.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = $1, slug = $2, description = $3, updated_at = $4
		WHERE id = $5 AND organization_id = $6 AND is_active`,
		p.Name, p.Slug, p.Description, p.UpdatedAt, p.ID, p.OrgID)
	if db.IsUniqueViolation(err, slugConstraint) {
		return domain.ErrSlugTaken
	}
	return err
}

// Deactivate soft-deletes the project.
func (r *PostgresRepository) Deactivate(ctx context.Context, orgID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET is_active = FALSE, updated_at = $1
		WHERE id = $2 AND organization_id = $3 AND is_active`, time.Now().UTC(), id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*domain.Project, error) {
	var p domain.Project
	if err := s.Scan(&p.ID, &p.OrgID, &p.Name, &p.Slug, &p.Description, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
