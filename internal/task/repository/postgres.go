package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/task/domain"
)

const taskColumns = `id, organization_id, board_id, title, description, status, priority, assigned_to, created_by, due_date, position, created_at, updated_at`

// PostgresRepository persists tasks in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the task. The task must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.OrgID, t.BoardID, t.Title, t.Description, t.Status, t.Priority,
		nullString(t.AssignedTo), t.CreatedBy, t.DueDate, t.Position, t.CreatedAt, t.UpdatedAt)
	return err
}

// GetByID returns task id of orgID, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND organization_id = $2`, id, orgID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListByBoard returns the board's tasks matching f.
func (r *PostgresRepository) ListByBoard(ctx context.Context, orgID, boardID string, f domain.Filter, limit, offset int) ([]*domain.Task, int, error) {
	where, args := filterClause(orgID, boardID, f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM tasks WHERE %s
		ORDER BY position, created_at, id
		LIMIT $%d OFFSET $%d`, taskColumns, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Update saves every editable field, including a board move.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET board_id = $1, title = $2, description = $3, status = $4, priority = $5,
			assigned_to = $6, due_date = $7, position = $8, updated_at = $9
		WHERE id = $10 AND organization_id = $11`,
		t.BoardID, t.Title, t.Description, t.Status, t.Priority,
		nullString(t.AssignedTo), t.DueDate, t.Position, t.UpdatedAt, t.ID, t.OrgID)
	return err
}

// Delete removes the task; comments go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func filterClause(orgID, boardID string, f domain.Filter) (string, []any) {
	conds := []string{"organization_id = $1", "board_id = $2"}
	args := []any{orgID, boardID}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*domain.Task, error) {
	var (
		t        domain.Task
		assigned sql.NullString
		due      sql.NullTime
	)
	err := s.Scan(&t.ID, &t.OrgID, &t.BoardID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&assigned, &t.CreatedBy, &due, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.AssignedTo = assigned.String
	if due.Valid {
		t.DueDate = &due.Time
	}
	return &t, nil
}
