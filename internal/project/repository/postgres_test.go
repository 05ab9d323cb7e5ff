package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"projecthub/backend/internal/db"
	"projecthub/backend/internal/project/domain"
)

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	orgID, userID := uuid.New().String(), uuid.New().String()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `INSERT INTO organizations (id, name, slug) VALUES ($1, 'T', $1)`, orgID); err != nil {
		t.Fatalf("insert org: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash) VALUES ($1, $1, 'x')`, userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	repo := NewPostgresRepository(tx)
	p := &domain.Project{ID: uuid.New().String(), OrgID: orgID, Name: "P", Slug: "p", IsActive: true, CreatedBy: userID, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(ctx, orgID, p.ID)
	if err != nil || got == nil || got.Slug != "p" {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if other, _ := repo.GetByID(ctx, uuid.New().String(), p.ID); other != nil {
		t.Error("GetByID must not cross organizations")
	}

	// Savepoint so the expected unique violation does not abort the transaction.
	if _, err := tx.ExecContext(ctx, `SAVEPOINT dup`); err != nil {
		t.Fatal(err)
	}
	dup := *p
	dup.ID = uuid.New().String()
	if err := repo.Create(ctx, &dup); !errors.Is(err, domain.ErrSlugTaken) {
		t.Errorf("duplicate slug err = %v", err)
	}
	if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT dup`); err != nil {
		t.Fatal(err)
	}

	list, total, err := repo.ListByOrg(ctx, orgID, 10, 0)
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("ListByOrg = %d items, total %d, %v", len(list), total, err)
	}
	ok, err := repo.Deactivate(ctx, orgID, p.ID)
	if err != nil || !ok {
		t.Fatalf("Deactivate = %v, %v", ok, err)
	}
	if got, _ := repo.GetByID(ctx, orgID, p.ID); got != nil {
		t.Error("deactivated project should not be returned")
	}
}
