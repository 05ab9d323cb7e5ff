package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	membershipdomain "projecthub/backend/internal/membership/domain"
	orgdomain "projecthub/backend/internal/organization/domain"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/store"
	userdomain "projecthub/backend/internal/user/domain"
)

var _ store.TxRunner = (*Store)(nil)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o1", Name: "Acme", Slug: "acme", IsActive: true}); err != nil {
			return err
		}
		if err := r.Users.Create(ctx, &userdomain.User{ID: "u1", Email: "a@example.com", IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v, want boom", err)
	}
	users, orgs, memberships := s.Counts()
	if users != 0 || orgs != 0 || memberships != 0 {
		t.Errorf("rolled back tx left data: users=%d orgs=%d memberships=%d", users, orgs, memberships)
	}
}

func TestWithinTx_Commits(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		return r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o1", Name: "Acme", Slug: "acme", IsActive: true})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	o, err := s.Repos().Orgs.GetOrganizationBySlug(ctx, "acme")
	if err != nil || o == nil {
		t.Fatalf("GetOrganizationBySlug = %v, %v", o, err)
	}
}

func TestUniqueness(t *testing.T) {
	s := New()
	r := s.Repos()
	ctx := context.Background()

	if err := r.Users.Create(ctx, &userdomain.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Users.Create(ctx, &userdomain.User{ID: "u2", Email: "a@example.com"}); !errors.Is(err, userdomain.ErrDuplicateEmail) {
		t.Errorf("duplicate email err = %v", err)
	}

	if err := r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o1", Slug: "acme"}); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if err := r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o2", Slug: "acme"}); !errors.Is(err, orgdomain.ErrSlugTaken) {
		t.Errorf("duplicate slug err = %v", err)
	}
	if err := r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o2", Slug: "other"}); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if err := r.Orgs.UpdateOrganization(ctx, &orgdomain.Org{ID: "o2", Slug: "acme"}); !errors.Is(err, orgdomain.ErrSlugTaken) {
		t.Errorf("update to taken slug err = %v", err)
	}

	role, err := r.Roles.GetOrCreateRole(ctx, roledomain.Member)
	if err != nil {
		t.Fatalf("GetOrCreateRole: %v", err)
	}
	again, _ := r.Roles.GetOrCreateRole(ctx, roledomain.Member)
	if again.ID != role.ID {
		t.Error("GetOrCreateRole should return the existing row")
	}
	if _, err := r.Roles.GetOrCreateRole(ctx, roledomain.Name("OWNER")); !errors.Is(err, roledomain.ErrUnknownRole) {
		t.Errorf("unknown role err = %v", err)
	}

	m := &membershipdomain.Membership{ID: "m1", UserID: "u1", OrgID: "o1", RoleID: role.ID, IsActive: true}
	if err := r.Memberships.CreateMembership(ctx, m); err != nil {
		t.Fatalf("CreateMembership: %v", err)
	}
	m2 := &membershipdomain.Membership{ID: "m2", UserID: "u1", OrgID: "o1", RoleID: role.ID, IsActive: true}
	if err := r.Memberships.CreateMembership(ctx, m2); !errors.Is(err, membershipdomain.ErrDuplicateMembership) {
		t.Errorf("duplicate membership err = %v", err)
	}
	got, _ := r.Memberships.GetMembershipByUserAndOrg(ctx, "u1", "o1")
	if got == nil || got.Role != roledomain.Member {
		t.Errorf("membership role should be filled from role id, got %+v", got)
	}
}

func TestListActiveByUser_SkipsInactiveOrgs(t *testing.T) {
	s := New()
	r := s.Repos()
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o1", Slug: "one", IsActive: true})
	_ = r.Orgs.CreateOrganization(ctx, &orgdomain.Org{ID: "o2", Slug: "two", IsActive: true})
	_ = r.Memberships.CreateMembership(ctx, &membershipdomain.Membership{ID: "m2", UserID: "u1", OrgID: "o2", Role: roledomain.Member, IsActive: true, CreatedAt: t0.Add(time.Hour)})
	_ = r.Memberships.CreateMembership(ctx, &membershipdomain.Membership{ID: "m1", UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin, IsActive: true, CreatedAt: t0})

	list, err := r.Memberships.ListActiveByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(list) != 2 || list[0].OrgID != "o1" {
		t.Fatalf("ListActiveByUser = %+v, want o1 first", list)
	}

	s.SetOrgActive("o1", false)
	list, _ = r.Memberships.ListActiveByUser(ctx, "u1")
	if len(list) != 1 || list[0].OrgID != "o2" {
		t.Errorf("inactive org should be skipped, got %+v", list)
	}
}
