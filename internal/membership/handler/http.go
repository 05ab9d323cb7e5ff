// Package handler serves organization members and their roles over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/membership/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/platform/validation"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/store"
)

// ErrLastAdmin is returned when a role change would leave the organization without an ORG_ADMIN.
var ErrLastAdmin = errors.New("organization must keep at least one active ORG_ADMIN")

// MemberStore lists the members of an organization.
type MemberStore interface {
	ListMembersByOrg(ctx context.Context, orgID string) ([]*domain.Member, error)
}

// Handler serves /organizations/current/members.
type Handler struct {
	members MemberStore
	tx      store.TxRunner
}

// NewHandler returns a Handler that lists through members and changes roles inside tx.
func NewHandler(members MemberStore, tx store.TxRunner) *Handler {
	return &Handler{members: members, tx: tx}
}

// Routes mounts the member endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/{userID}/role", h.UpdateRole)
}

// MemberView is the JSON representation of a member.
type MemberView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	JoinedAt  time.Time `json:"joined_at"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type updateRoleResponse struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

// List handles GET /organizations/current/members.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	members, err := h.members.ListMembersByOrg(r.Context(), p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, MemberView{
			UserID:    m.UserID,
			Email:     m.Email,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Role:      string(m.Role),
			IsActive:  m.IsActive,
			JoinedAt:  m.JoinedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// UpdateRole handles PUT /organizations/current/members/{userID}/role. ORG_ADMIN only.
// The new role shows up in the member's tokens after their next refresh or login.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireOrgAdmin(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	role, err := roledomain.ParseName(req.Role)
	if err != nil {
		httpx.WriteError(w, r, validation.Errorf("role", "must be one of %s, %s, %s", roledomain.OrgAdmin, roledomain.ProjectManager, roledomain.Member))
		return
	}
	userID := chi.URLParam(r, "userID")
	err = h.tx.WithinTx(r.Context(), func(ctx context.Context, repos store.Repos) error {
		return changeRole(ctx, repos, p.OrgID, userID, role)
	})
	if err != nil {
		httpx.WriteError(w, r, err, mapMemberError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updateRoleResponse{UserID: userID, OrganizationID: p.OrgID, Role: string(role)})
}

// changeRole runs inside one transaction holding the organization lock, so the
// last-admin check and the update see the same set of admins.
func changeRole(ctx context.Context, repos store.Repos, orgID, userID string, role roledomain.Name) error {
	if err := repos.Orgs.LockOrganization(ctx, orgID); err != nil {
		return err
	}
	current, err := repos.Memberships.GetMembershipByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if current == nil {
		return httpx.NotFound("member not found")
	}
	if current.Role == roledomain.OrgAdmin && role != roledomain.OrgAdmin {
		if err := ensureOtherAdmin(ctx, repos.Memberships, orgID, userID); err != nil {
			return err
		}
	}
	roleRow, err := repos.Roles.GetOrCreateRole(ctx, role)
	if err != nil {
		return err
	}
	updated, err := repos.Memberships.UpdateRole(ctx, userID, orgID, roleRow.ID)
	if err != nil {
		return err
	}
	if updated == nil {
		return httpx.NotFound("member not found")
	}
	return nil
}

func ensureOtherAdmin(ctx context.Context, members MemberStore, orgID, userID string) error {
	list, err := members.ListMembersByOrg(ctx, orgID)
	if err != nil {
		return err
	}
	for _, m := range list {
		if m.UserID != userID && m.IsActive && m.Role == roledomain.OrgAdmin {
			return nil
		}
	}
	return ErrLastAdmin
}

func mapMemberError(err error) *httpx.Error {
	if errors.Is(err, ErrLastAdmin) {
		return httpx.NewError(http.StatusConflict, httpx.CodeConflict, ErrLastAdmin)
	}
	return nil
}
