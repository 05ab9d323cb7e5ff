package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/role/domain"
)

// PostgresRepository persists roles in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a role repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetOrCreateRole inserts the role if missing and returns the stored row.
// Concurrent callers converge on the same row through the unique name constraint.
func (r *PostgresRepository) GetOrCreateRole(ctx context.Context, name domain.Name) (*domain.Role, error) {
	if !name.Valid() {
		return nil, domain.ErrUnknownRole
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		uuid.New().String(), string(name), name.Description(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	var role domain.Role
	var stored string
	err = r.db.QueryRowContext(ctx, `SELECT id, name, description, created_at FROM roles WHERE name = $1`, string(name)).
		Scan(&role.ID, &stored, &role.Description, &role.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("select role: %w", err)
	}
	role.Name = domain.Name(stored)
	return &role, nil
}
