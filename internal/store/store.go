// Package store groups the identity repositories and runs them inside one transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"projecthub/backend/internal/db"
	membershiprepo "projecthub/backend/internal/membership/repository"
	orgrepo "projecthub/backend/internal/organization/repository"
	rolerepo "projecthub/backend/internal/role/repository"
	userrepo "projecthub/backend/internal/user/repository"
)

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Users       userrepo.Repository
	Orgs        orgrepo.Repository
	Roles       rolerepo.Repository
	Memberships membershiprepo.Repository
}

// TxRunner runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// Postgres is the database-backed TxRunner.
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns a Postgres store over conn.
func NewPostgres(conn *sql.DB) *Postgres {
	return &Postgres{db: conn}
}

// Repos returns repositories that run each statement in its own implicit transaction.
func (p *Postgres) Repos() Repos {
	return reposFor(p.db)
}

// WithinTx implements TxRunner.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, reposFor(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func reposFor(conn db.DBTX) Repos {
	return Repos{
		Users:       userrepo.NewPostgresRepository(conn),
		Orgs:        orgrepo.NewPostgresRepository(conn),
		Roles:       rolerepo.NewPostgresRepository(conn),
		Memberships: membershiprepo.NewPostgresRepository(conn),
	}
}
