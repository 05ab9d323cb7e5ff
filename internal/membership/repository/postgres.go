package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/membership/domain"
	roledomain "projecthub/backend/internal/role/domain"
)

const membershipSelect = `
	SELECT m.id, m.user_id, m.organization_id, m.role_id, r.name, m.is_active, m.created_at, m.updated_at
	FROM user_organizations m
	JOIN roles r ON r.id = m.role_id`

// PostgresRepository persists memberships in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// CreateMembership persists m. Returns domain.ErrDuplicateMembership when the user already belongs to the organization.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_organizations (id, user_id, organization_id, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, m.OrgID, m.RoleID, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if db.IsUniqueViolation(err, "user_organizations_user_org_key") {
		return domain.ErrDuplicateMembership
	}
	return err
}

// GetMembershipByUserAndOrg returns the membership or nil if the user does not belong to orgID.
func (r *PostgresRepository) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx, membershipSelect+` WHERE m.user_id = $1 AND m.organization_id = $2`, userID, orgID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// ListActiveByUser returns active memberships of userID in active organizations, oldest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, membershipSelect+`
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND m.is_active AND o.is_active
		ORDER BY m.created_at, m.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMembersByOrg returns every membership of orgID joined with the user profile.
func (r *PostgresRepository) ListMembersByOrg(ctx context.Context, orgID string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.first_name, u.last_name, r.name, m.is_active, m.created_at
		FROM user_organizations m
		JOIN users u ON u.id = m.user_id
		JOIN roles r ON r.id = m.role_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at, m.id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		var mb domain.Member
		var role string
		if err := rows.Scan(&mb.UserID, &mb.Email, &mb.FirstName, &mb.LastName, &role, &mb.IsActive, &mb.JoinedAt); err != nil {
			return nil, err
		}
		mb.Role = roledomain.Name(role)
		out = append(out, &mb)
	}
	return out, rows.Err()
}

// UpdateRole changes the role of userID in orgID and returns the updated membership, or nil if none exists.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, orgID, roleID string) (*domain.Membership, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_organizations SET role_id = $3, updated_at = $4
		WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID, roleID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return r.GetMembershipByUserAndOrg(ctx, userID, orgID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMembership(s scanner) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	if err := s.Scan(&m.ID, &m.UserID, &m.OrgID, &m.RoleID, &role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Role = roledomain.Name(role)
	return &m, nil
}
