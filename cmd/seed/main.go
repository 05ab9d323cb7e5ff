// seed inserts demo data for local development: the role catalogue, the "acme"
// organization and one user per role. Safe to re-run; existing rows are kept.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"projecthub/backend/internal/config"
	"projecthub/backend/internal/db"
	membershipdomain "projecthub/backend/internal/membership/domain"
	orgdomain "projecthub/backend/internal/organization/domain"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/security"
	"projecthub/backend/internal/store"
	userdomain "projecthub/backend/internal/user/domain"
)

const (
	demoOrgName  = "Acme"
	demoOrgSlug  = "acme"
	demoPassword = "password123"
)

type demoUser struct {
	email     string
	firstName string
	lastName  string
	role      roledomain.Name
}

var demoUsers = []demoUser{
	{"admin@acme.test", "Ada", "Admin", roledomain.OrgAdmin},
	{"manager@acme.test", "Max", "Manager", roledomain.ProjectManager},
	{"member@acme.test", "Mia", "Member", roledomain.Member},
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; set DATABASE_URL or add it to .env")
		os.Exit(1)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	created, err := seed(ctx, store.NewPostgres(conn), security.NewHasher(cfg.BcryptCost), time.Now().UTC())
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "org", demoOrgSlug, "users_created", created, "password", demoPassword)
}

// seed creates whatever part of the demo data is missing and returns how many
// users it added.
func seed(ctx context.Context, tx store.TxRunner, hasher passwordHasher, now time.Time) (int, error) {
	created := 0
	err := tx.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		roles := make(map[roledomain.Name]*roledomain.Role, len(roledomain.Names()))
		for _, name := range roledomain.Names() {
			role, err := r.Roles.GetOrCreateRole(ctx, name)
			if err != nil {
				return err
			}
			roles[name] = role
		}

		org, err := r.Orgs.GetOrganizationBySlug(ctx, demoOrgSlug)
		if err != nil {
			return err
		}
		if org == nil {
			org = &orgdomain.Org{
				ID:        uuid.New().String(),
				Name:      demoOrgName,
				Slug:      demoOrgSlug,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := r.Orgs.CreateOrganization(ctx, org); err != nil {
				return err
			}
		}

		for _, du := range demoUsers {
			u, err := r.Users.GetByEmail(ctx, du.email)
			if err != nil {
				return err
			}
			if u == nil {
				digest, err := hasher.Hash(demoPassword)
				if err != nil {
					return err
				}
				u = &userdomain.User{
					ID:           uuid.New().String(),
					Email:        du.email,
					PasswordHash: digest,
					FirstName:    du.firstName,
					LastName:     du.lastName,
					IsActive:     true,
					IsVerified:   true,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				if err := r.Users.Create(ctx, u); err != nil {
					return err
				}
				created++
			}

			m, err := r.Memberships.GetMembershipByUserAndOrg(ctx, u.ID, org.ID)
			if err != nil {
				return err
			}
			if m != nil {
				continue
			}
			role := roles[du.role]
			err = r.Memberships.CreateMembership(ctx, &membershipdomain.Membership{
				ID:        uuid.New().String(),
				UserID:    u.ID,
				OrgID:     org.ID,
				RoleID:    role.ID,
				Role:      role.Name,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
