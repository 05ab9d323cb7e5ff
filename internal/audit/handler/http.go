// Package handler exposes the organization's audit trail over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/audit/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
)

// Lister reads audit entries for one organization.
type Lister interface {
	ListByOrg(ctx context.Context, orgID string, f domain.Filter, limit, offset int) ([]*domain.AuditLog, int, error)
}

// Handler serves /audit-logs.
type Handler struct {
	logs Lister
}

// NewHandler returns a Handler reading from logs.
func NewHandler(logs Lister) *Handler {
	return &Handler{logs: logs}
}

// Routes mounts the audit endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
}

// List handles GET /audit-logs. ORG_ADMIN only; entries are scoped to the caller's organization.
// Optional filters: user_id, action, resource.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireOrgAdmin(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := domain.Filter{
		UserID:   q.Get("user_id"),
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
	}
	logs, total, err := h.logs.ListByOrg(r.Context(), p.OrgID, f, page.PageSize, page.Offset())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewListResponse(logs, total, page))
}
