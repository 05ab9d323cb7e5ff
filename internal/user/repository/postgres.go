package repository

import (
	"context"
	"database/sql"
	"errors"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/user/domain"
)

const userColumns = `u.id, u.email, u.password_hash, u.first_name, u.last_name, u.is_active, u.is_verified, u.created_at, u.updated_at`

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db (pool or transaction) for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	return scanUserRow(row)
}

// GetByEmail returns the user with the given (normalized) email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email)
	return scanUserRow(row)
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
// Returns domain.ErrDuplicateEmail when the email is already registered.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_active, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	if db.IsUniqueViolation(err, "users_email_key") {
		return domain.ErrDuplicateEmail
	}
	return err
}

// ListByOrg returns active users with an active membership in orgID.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.User, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM users u
		JOIN user_organizations m ON m.user_id = u.id
		WHERE m.organization_id = $1 AND m.is_active AND u.is_active`, orgID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users u
		JOIN user_organizations m ON m.user_id = u.id
		WHERE m.organization_id = $1 AND m.is_active AND u.is_active
		ORDER BY u.created_at, u.id
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUserRow(row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
