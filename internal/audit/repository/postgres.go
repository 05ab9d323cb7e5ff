package repository

import (
	"context"
	"fmt"
	"strings"

	"projecthub/backend/internal/audit/domain"
	"projecthub/backend/internal/db"
)

// PostgresRepository persists audit logs in Postgres.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, organization_id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.OrgID, a.UserID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt)
	return err
}

// ListByOrg returns audit logs for orgID matching f, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, f domain.Filter, limit, offset int) ([]*domain.AuditLog, int, error) {
	where, args := filterClause(orgID, f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_logs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, organization_id, user_id, action, resource, ip, metadata, created_at
		FROM audit_logs WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.OrgID, &a.UserID, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &a)
	}
	return out, total, rows.Err()
}

func filterClause(orgID string, f domain.Filter) (string, []any) {
	conds := []string{"organization_id = $1"}
	args := []any{orgID}
	for _, c := range []struct{ column, value string }{
		{"user_id", f.UserID},
		{"action", f.Action},
		{"resource", f.Resource},
	} {
		if c.value == "" {
			continue
		}
		args = append(args, c.value)
		conds = append(conds, fmt.Sprintf("%s = $%d", c.column, len(args)))
	}
	return strings.Join(conds, " AND "), args
}
