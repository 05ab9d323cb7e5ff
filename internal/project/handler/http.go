// Package handler serves the organization's projects over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/project/domain"
	"projecthub/backend/internal/project/repository"
)

// Handler serves /projects.
type Handler struct {
	projects repository.Repository
	now      func() time.Time
}

// NewHandler returns a Handler backed by projects.
func NewHandler(projects repository.Repository) *Handler {
	return &Handler{projects: projects, now: time.Now}
}

// Routes mounts the project endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{projectID}", h.Get)
	r.Put("/{projectID}", h.Update)
	r.Delete("/{projectID}", h.Delete)
}

// ProjectView is the JSON representation of a project.
type ProjectView struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toView(p *domain.Project) ProjectView {
	return ProjectView{
		ID:             p.ID,
		OrganizationID: p.OrgID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		IsActive:       p.IsActive,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type createRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// List handles GET /projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	projects, total, err := h.projects.ListByOrg(r.Context(), p.OrgID, page.PageSize, page.Offset())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	views := make([]ProjectView, 0, len(projects))
	for _, pr := range projects {
		views = append(views, toView(pr))
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewListResponse(views, total, page))
}

// Create handles POST /projects. Managers only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireManager(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	now := h.now().UTC()
	project := &domain.Project{
		ID:          uuid.New().String(),
		OrgID:       p.OrgID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := project.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.projects.Create(r.Context(), project); err != nil {
		httpx.WriteError(w, r, err, mapProjectError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(project))
}

// Get handles GET /projects/{projectID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	project, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(project))
}

// Update handles PUT /projects/{projectID}. Managers only; absent fields are left unchanged.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireManager(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	project, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		project.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if err := project.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	project.UpdatedAt = h.now().UTC()
	if err := h.projects.Update(r.Context(), project); err != nil {
		httpx.WriteError(w, r, err, mapProjectError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(project))
}

// Delete handles DELETE /projects/{projectID}. Managers only; the project is deactivated.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireManager(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ok, err := h.projects.Deactivate(r.Context(), p.OrgID, chi.URLParam(r, "projectID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !ok {
		httpx.WriteError(w, r, httpx.NotFound("project not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) load(r *http.Request, orgID string) (*domain.Project, error) {
	project, err := h.projects.GetByID(r.Context(), orgID, chi.URLParam(r, "projectID"))
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, httpx.NotFound("project not found")
	}
	return project, nil
}

func mapProjectError(err error) *httpx.Error {
	if errors.Is(err, domain.ErrSlugTaken) {
		return httpx.NewError(http.StatusConflict, httpx.CodeConflict, domain.ErrSlugTaken)
	}
	return nil
}
