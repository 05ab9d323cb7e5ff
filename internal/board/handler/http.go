// Package handler serves project boards over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"projecthub/backend/internal/board/domain"
	"projecthub/backend/internal/board/repository"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	projectdomain "projecthub/backend/internal/project/domain"
)

// ProjectReader looks up an active project inside an organization.
type ProjectReader interface {
	GetByID(ctx context.Context, orgID, id string) (*projectdomain.Project, error)
}

// Handler serves /boards and /projects/{projectID}/boards.
type Handler struct {
	boards   repository.Repository
	projects ProjectReader
	now      func() time.Time
}

// NewHandler returns a Handler backed by boards and projects.
func NewHandler(boards repository.Repository, projects ProjectReader) *Handler {
	return &Handler{boards: boards, projects: projects, now: time.Now}
}

// Routes mounts the single-board endpoints on r (/boards).
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{boardID}", h.Get)
	r.Put("/{boardID}", h.Update)
	r.Delete("/{boardID}", h.Delete)
}

// ProjectRoutes mounts the per-project endpoints on r (/projects/{projectID}/boards).
func (h *Handler) ProjectRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// BoardView is the JSON representation of a board.
type BoardView struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ProjectID      string    `json:"project_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toView(b *domain.Board) BoardView {
	return BoardView{
		ID:             b.ID,
		OrganizationID: b.OrgID,
		ProjectID:      b.ProjectID,
		Name:           b.Name,
		Description:    b.Description,
		Position:       b.Position,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

// List handles GET /projects/{projectID}/boards.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	project, err := h.project(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	boards, err := h.boards.ListByProject(r.Context(), p.OrgID, project.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	views := make([]BoardView, 0, len(boards))
	for _, b := range boards {
		views = append(views, toView(b))
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

// Create handles POST /projects/{projectID}/boards. Managers only.
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
	project, err := h.project(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	now := h.now().UTC()
	board := &domain.Board{
		ID:          uuid.New().String(),
		OrgID:       project.OrgID,
		ProjectID:   project.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Position:    req.Position,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := board.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.boards.Create(r.Context(), board); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(board))
}

// Get handles GET /boards/{boardID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	board, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(board))
}

// Update handles PUT /boards/{boardID}. Managers only.
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
	board, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if req.Name != nil {
		board.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Position != nil {
		board.Position = *req.Position
	}
	if err := board.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	board.UpdatedAt = h.now().UTC()
	if err := h.boards.Update(r.Context(), board); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(board))
}

// Delete handles DELETE /boards/{boardID}. Managers only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireManager(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ok, err := h.boards.Deactivate(r.Context(), p.OrgID, chi.URLParam(r, "boardID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !ok {
		httpx.WriteError(w, r, httpx.NotFound("board not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) project(r *http.Request, orgID string) (*projectdomain.Project, error) {
	project, err := h.projects.GetByID(r.Context(), orgID, chi.URLParam(r, "projectID"))
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, httpx.NotFound("project not found")
	}
	return project, nil
}

func (h *Handler) load(r *http.Request, orgID string) (*domain.Board, error) {
	board, err := h.boards.GetByID(r.Context(), orgID, chi.URLParam(r, "boardID"))
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, httpx.NotFound("board not found")
	}
	return board, nil
}
