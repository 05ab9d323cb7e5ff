package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"projecthub/backend/internal/membership/domain"
	roledomain "projecthub/backend/internal/role/domain"
)

type memMembershipRepo struct {
	mu      sync.Mutex
	byUser  map[string][]*domain.Membership
	listErr error
}

func (m *memMembershipRepo) ListActiveByUser(_ context.Context, userID string) ([]*domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.byUser[userID], nil
}

func membership(id, orgID string, role roledomain.Name, active bool, created time.Time) *domain.Membership {
	return &domain.Membership{ID: id, UserID: "u1", OrgID: orgID, Role: role, IsActive: active, CreatedAt: created}
}

func TestResolveMembership(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &memMembershipRepo{byUser: map[string][]*domain.Membership{
		"u1": {
			membership("m1", "org-a", roledomain.Member, true, t0),
			membership("m2", "org-b", roledomain.OrgAdmin, true, t0.Add(time.Hour)),
			membership("m3", "org-c", roledomain.ProjectManager, false, t0.Add(2*time.Hour)),
		},
	}}
	r := NewResolver(repo)
	ctx := context.Background()

	testCases := []struct {
		name     string
		userID   string
		orgID    string
		wantOrg  string
		wantRole roledomain.Name
		wantErr  error
	}{
		{"oldest membership without filter", "u1", "", "org-a", roledomain.Member, nil},
		{"narrowed to org", "u1", "org-b", "org-b", roledomain.OrgAdmin, nil},
		{"inactive membership", "u1", "org-c", "", "", ErrNoActiveMembership},
		{"foreign org", "u1", "org-x", "", "", ErrNoActiveMembership},
		{"no memberships", "u2", "", "", "", ErrNoActiveMembership},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.ResolveMembership(ctx, tc.userID, tc.orgID)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveMembership: %v", err)
			}
			if got.OrgID != tc.wantOrg || got.Role != tc.wantRole {
				t.Errorf("got (%s, %s), want (%s, %s)", got.OrgID, got.Role, tc.wantOrg, tc.wantRole)
			}
		})
	}
}

func TestResolveMembership_Deterministic(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &memMembershipRepo{byUser: map[string][]*domain.Membership{
		"u1": {
			membership("m1", "org-a", roledomain.Member, true, t0),
			membership("m2", "org-b", roledomain.OrgAdmin, true, t0),
		},
	}}
	r := NewResolver(repo)
	for i := 0; i < 10; i++ {
		got, err := r.ResolveMembership(context.Background(), "u1", "")
		if err != nil {
			t.Fatalf("ResolveMembership: %v", err)
		}
		if got.OrgID != "org-a" {
			t.Fatalf("iteration %d: OrgID = %q, want org-a", i, got.OrgID)
		}
	}
}

func TestResolveMembership_RepoError(t *testing.T) {
	repoErr := errors.New("db down")
	r := NewResolver(&memMembershipRepo{listErr: repoErr})
	_, err := r.ResolveMembership(context.Background(), "u1", "")
	if !errors.Is(err, repoErr) {
		t.Errorf("err = %v, want wrapped repo error", err)
	}
	if errors.Is(err, ErrNoActiveMembership) {
		t.Error("storage failures must not look like a missing membership")
	}
}

func TestResolveMembership_UnknownStoredRole(t *testing.T) {
	repo := &memMembershipRepo{byUser: map[string][]*domain.Membership{
		"u1": {membership("m1", "org-a", roledomain.Name("OWNER"), true, time.Now())},
	}}
	_, err := NewResolver(repo).ResolveMembership(context.Background(), "u1", "")
	if !errors.Is(err, roledomain.ErrUnknownRole) {
		t.Errorf("err = %v, want ErrUnknownRole", err)
	}
}
