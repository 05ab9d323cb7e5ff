// Package handler serves the caller's current organization over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/organization/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/platform/validation"
)

// OrgStore is the part of the organization repository the handler uses.
type OrgStore interface {
	GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error)
	UpdateOrganization(ctx context.Context, o *domain.Org) error
}

// Handler serves /organizations/current.
type Handler struct {
	orgs OrgStore
	now  func() time.Time
}

// NewHandler returns a Handler backed by orgs.
func NewHandler(orgs OrgStore) *Handler {
	return &Handler{orgs: orgs, now: time.Now}
}

// Routes mounts the organization endpoints on r. Member routes are mounted by the membership handler.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
	r.Delete("/", h.Deactivate)
}

// OrgView is the JSON representation of an organization.
type OrgView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toView(o *domain.Org) OrgView {
	return OrgView{ID: o.ID, Name: o.Name, Slug: o.Slug, IsActive: o.IsActive, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt}
}

type updateRequest struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// Get handles GET /organizations/current.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	org, err := h.current(r.Context(), p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(org))
}

// Update handles PUT /organizations/current. Only ORG_ADMIN may rename the organization or change its slug.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireOrgAdmin(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	org, err := h.current(r.Context(), p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if req.Name != nil {
		org.Name = strings.TrimSpace(*req.Name)
		if err := validation.Length("name", org.Name, 1, 255); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	if req.Slug != nil {
		org.Slug = strings.TrimSpace(*req.Slug)
		if err := domain.ValidateSlug("slug", org.Slug); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	org.UpdatedAt = h.now().UTC()
	if err := h.orgs.UpdateOrganization(r.Context(), org); err != nil {
		httpx.WriteError(w, r, err, mapOrgError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(org))
}

// Deactivate handles DELETE /organizations/current. Only ORG_ADMIN may deactivate the
// organization; rows are kept, and members can no longer log in or refresh into it.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireOrgAdmin(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	org, err := h.current(r.Context(), p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	org.IsActive = false
	org.UpdatedAt = h.now().UTC()
	if err := h.orgs.UpdateOrganization(r.Context(), org); err != nil {
		httpx.WriteError(w, r, err, mapOrgError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) current(ctx context.Context, orgID string) (*domain.Org, error) {
	org, err := h.orgs.GetOrganizationByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil || !org.IsActive {
		return nil, httpx.NotFound("organization not found")
	}
	return org, nil
}

func mapOrgError(err error) *httpx.Error {
	if errors.Is(err, domain.ErrSlugTaken) {
		return httpx.NewError(http.StatusBadRequest, "slug_taken", domain.ErrSlugTaken)
	}
	return nil
}
