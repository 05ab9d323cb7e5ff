// Package handler serves the tenant's user directory over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/user/domain"
)

// UserLister is the part of the user repository the handler reads.
type UserLister interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.User, int, error)
}

// Handler serves /users.
type Handler struct {
	users UserLister
}

// NewHandler returns a Handler reading from users.
func NewHandler(users UserLister) *Handler {
	return &Handler{users: users}
}

// Routes mounts the user endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/me", h.Me)
}

// UserView is the public representation of a user. It never carries the password hash.
type UserView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type meView struct {
	UserView
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

func toView(u *domain.User) UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// List handles GET /users: active users of the caller's organization, paginated.
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
	users, total, err := h.users.ListByOrg(r.Context(), p.OrgID, page.PageSize, page.Offset())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toView(u))
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewListResponse(views, total, page))
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	u, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if u == nil {
		httpx.WriteError(w, r, httpx.NotFound("user not found"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meView{UserView: toView(u), OrganizationID: p.OrgID, Role: string(p.Role)})
}
