package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"projecthub/backend/internal/board/domain"
	"projecthub/backend/internal/db"
)

const boardColumns = `id, organization_id, project_id, name, description, position, is_active, created_at, updated_at`

// PostgresRepository persists boards in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a board repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the board. The board must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards (`+boardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.OrgID, b.ProjectID, b.Name, b.Description, b.Position, b.IsActive, b.CreatedAt, b.UpdatedAt)
	return err
}

// GetByID returns the active board id of orgID, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Board, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+boardColumns+` FROM boards
		WHERE id = $1 AND organization_id = $2 AND is_active`, id, orgID)
	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// ListByProject returns active boards of projectID.
func (r *PostgresRepository) ListByProject(ctx context.Context, orgID, projectID string) ([]*domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+boardColumns+` FROM boards
		WHERE organization_id = $1 AND project_id = $2 AND is_active
		ORDER BY position, created_at, id`, orgID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update saves name, description and position.
func (r *PostgresRepository) Update(ctx context.Context, b *domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE boards SET name = $1, description = $2, position = $3, updated_at = $4
		WHERE id = $5 AND organization_id = $6 AND is_active`,
		b.Name, b.Description, b.Position, b.UpdatedAt, b.ID, b.OrgID)
	return err
}

// Deactivate soft-deletes the board.
func (r *PostgresRepository) Deactivate(ctx context.Context, orgID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boards SET is_active = FALSE, updated_at = $1
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

func scanBoard(s scanner) (*domain.Board, error) {
	var b domain.Board
	if err := s.Scan(&b.ID, &b.OrgID, &b.ProjectID, &b.Name, &b.Description, &b.Position, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
