// Package memstore is an in-memory store.Repos implementation for tests and local runs.
// It enforces the same uniqueness rules as the Postgres schema and commits
// transactions all-or-nothing.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	membershipdomain "projecthub/backend/internal/membership/domain"
	orgdomain "projecthub/backend/internal/organization/domain"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/store"
	userdomain "projecthub/backend/internal/user/domain"
)

type state struct {
	users       map[string]userdomain.User
	orgs        map[string]orgdomain.Org
	roles       map[roledomain.Name]roledomain.Role
	memberships []membershipdomain.Membership
}

func newState() *state {
	return &state{
		users: map[string]userdomain.User{},
		orgs:  map[string]orgdomain.Org{},
		roles: map[roledomain.Name]roledomain.Role{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	c.memberships = append([]membershipdomain.Membership(nil), s.memberships...)
	return c
}

// Store holds all identity data in memory. Transactions hold an exclusive lock
// for their whole duration, so they are serializable.
type Store struct {
	mu sync.Mutex
	st *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

// Repos returns repositories that operate on committed state.
func (s *Store) Repos() store.Repos {
	return reposFor(&view{store: s})
}

// WithinTx runs fn against a private copy of the state and publishes the copy
// only when fn returns nil. fn must only use the repos it is given.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos store.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(ctx, reposFor(&view{store: s, tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Counts returns the number of users, organizations and memberships. For assertions in tests.
func (s *Store) Counts() (users, orgs, memberships int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.users), len(s.st.orgs), len(s.st.memberships)
}

// SetUserActive flips a user's active flag.
func (s *Store) SetUserActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.st.users[id]; ok {
		u.IsActive = active
		s.st.users[id] = u
	}
}

// SetOrgActive flips an organization's active flag.
func (s *Store) SetOrgActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.st.orgs[id]; ok {
		o.IsActive = active
		s.st.orgs[id] = o
	}
}

// SetMembershipActive flips the active flag of the user's membership in orgID.
func (s *Store) SetMembershipActive(userID, orgID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.st.memberships {
		if m := &s.st.memberships[i]; m.UserID == userID && m.OrgID == orgID {
			m.IsActive = active
		}
	}
}

type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func reposFor(v *view) store.Repos {
	return store.Repos{
		Users:       &userRepo{v},
		Orgs:        &orgRepo{v},
		Roles:       &roleRepo{v},
		Memberships: &membershipRepo{v},
	}
}

type userRepo struct{ v *view }

func (r *userRepo) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	var out *userdomain.User
	err := r.v.read(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	var out *userdomain.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Create(_ context.Context, u *userdomain.User) error {
	return r.v.read(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return userdomain.ErrDuplicateEmail
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) ListByOrg(_ context.Context, orgID string, limit, offset int) ([]*userdomain.User, int, error) {
	var all []*userdomain.User
	err := r.v.read(func(st *state) error {
		for _, m := range st.memberships {
			if m.OrgID != orgID || !m.IsActive {
				continue
			}
			if u, ok := st.users[m.UserID]; ok && u.IsActive {
				u := u
				all = append(all, &u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type orgRepo struct{ v *view }

func (r *orgRepo) GetOrganizationByID(_ context.Context, id string) (*orgdomain.Org, error) {
	var out *orgdomain.Org
	err := r.v.read(func(st *state) error {
		if o, ok := st.orgs[id]; ok {
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *orgRepo) GetOrganizationBySlug(_ context.Context, slug string) (*orgdomain.Org, error) {
	var out *orgdomain.Org
	err := r.v.read(func(st *state) error {
		for _, o := range st.orgs {
			if o.Slug == slug {
				o := o
				out = &o
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *orgRepo) CreateOrganization(_ context.Context, o *orgdomain.Org) error {
	return r.v.read(func(st *state) error {
		for _, existing := range st.orgs {
			if existing.Slug == o.Slug {
				return orgdomain.ErrSlugTaken
			}
		}
		st.orgs[o.ID] = *o
		return nil
	})
}

func (r *orgRepo) UpdateOrganization(_ context.Context, o *orgdomain.Org) error {
	return r.v.read(func(st *state) error {
		if _, ok := st.orgs[o.ID]; !ok {
			return nil
		}
		for id, existing := range st.orgs {
			if id != o.ID && existing.Slug == o.Slug {
				return orgdomain.ErrSlugTaken
			}
		}
		st.orgs[o.ID] = *o
		return nil
	})
}

// LockOrganization is a no-op: WithinTx already holds the store lock for the whole transaction.
func (r *orgRepo) LockOrganization(context.Context, string) error { return nil }

type roleRepo struct{ v *view }

func (r *roleRepo) GetOrCreateRole(_ context.Context, name roledomain.Name) (*roledomain.Role, error) {
	if !name.Valid() {
		return nil, roledomain.ErrUnknownRole
	}
	var out roledomain.Role
	err := r.v.read(func(st *state) error {
		role, ok := st.roles[name]
		if !ok {
			role = roledomain.Role{
				ID:          uuid.New().String(),
				Name:        name,
				Description: name.Description(),
				CreatedAt:   time.Now().UTC(),
			}
			st.roles[name] = role
		}
		out = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type membershipRepo struct{ v *view }

func (r *membershipRepo) CreateMembership(_ context.Context, m *membershipdomain.Membership) error {
	return r.v.read(func(st *state) error {
		for _, existing := range st.memberships {
			if existing.UserID == m.UserID && existing.OrgID == m.OrgID {
				return membershipdomain.ErrDuplicateMembership
			}
		}
		cp := *m
		if cp.Role == "" {
			for _, role := range st.roles {
				if role.ID == cp.RoleID {
					cp.Role = role.Name
				}
			}
		}
		st.memberships = append(st.memberships, cp)
		return nil
	})
}

func (r *membershipRepo) GetMembershipByUserAndOrg(_ context.Context, userID, orgID string) (*membershipdomain.Membership, error) {
	var out *membershipdomain.Membership
	err := r.v.read(func(st *state) error {
		for _, m := range st.memberships {
			if m.UserID == userID && m.OrgID == orgID {
				m := m
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *membershipRepo) ListActiveByUser(_ context.Context, userID string) ([]*membershipdomain.Membership, error) {
	var out []*membershipdomain.Membership
	err := r.v.read(func(st *state) error {
		for _, m := range st.memberships {
			if m.UserID != userID || !m.IsActive {
				continue
			}
			if o, ok := st.orgs[m.OrgID]; !ok || !o.IsActive {
				continue
			}
			m := m
			out = append(out, &m)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *membershipRepo) ListMembersByOrg(_ context.Context, orgID string) ([]*membershipdomain.Member, error) {
	var out []*membershipdomain.Member
	err := r.v.read(func(st *state) error {
		for _, m := range st.memberships {
			if m.OrgID != orgID {
				continue
			}
			u := st.users[m.UserID]
			out = append(out, &membershipdomain.Member{
				UserID:    m.UserID,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Role:      m.Role,
				IsActive:  m.IsActive,
				JoinedAt:  m.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (r *membershipRepo) UpdateRole(_ context.Context, userID, orgID, roleID string) (*membershipdomain.Membership, error) {
	var out *membershipdomain.Membership
	err := r.v.read(func(st *state) error {
		var name roledomain.Name
		for _, role := range st.roles {
			if role.ID == roleID {
				name = role.Name
			}
		}
		for i := range st.memberships {
			m := &st.memberships[i]
			if m.UserID == userID && m.OrgID == orgID {
				m.RoleID = roleID
				m.Role = name
				m.UpdatedAt = time.Now().UTC()
				cp := *m
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}
