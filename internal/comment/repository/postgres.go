package repository

import (
	"context"
	"database/sql"
	"errors"

	"projecthub/backend/internal/comment/domain"
	"projecthub/backend/internal/db"
)

const commentColumns = `id, organization_id, task_id, user_id, content, created_at, updated_at`

// PostgresRepository persists comments in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a comment repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the comment. The comment must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.OrgID, c.TaskID, c.UserID, c.Content, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetByID returns comment id of orgID, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+` FROM comments WHERE id = $1 AND organization_id = $2`, id, orgID)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListByTask returns the comments of taskID.
func (r *PostgresRepository) ListByTask(ctx context.Context, orgID, taskID string) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE organization_id = $1 AND task_id = $2
		ORDER BY created_at, id`, orgID, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update saves the content.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE comments SET content = $1, updated_at = $2
		WHERE id = $3 AND organization_id = $4`, c.Content, c.UpdatedAt, c.ID, c.OrgID)
	return err
}

// Delete removes the comment.
func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := s.Scan(&c.ID, &c.OrgID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
