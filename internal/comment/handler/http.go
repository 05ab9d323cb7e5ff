// Package handler serves task comments over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"projecthub/backend/internal/comment/domain"
	"projecthub/backend/internal/comment/repository"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/policy/engine"
	taskdomain "projecthub/backend/internal/task/domain"
)

// TaskReader looks up a task inside an organization.
type TaskReader interface {
	GetByID(ctx context.Context, orgID, id string) (*taskdomain.Task, error)
}

// Handler serves /comments and /tasks/{taskID}/comments.
type Handler struct {
	comments repository.Repository
	tasks    TaskReader
	policy   engine.Evaluator
	now      func() time.Time
}

// NewHandler returns a comment Handler. policy decides who may edit or delete a comment.
func NewHandler(comments repository.Repository, tasks TaskReader, policy engine.Evaluator) *Handler {
	return &Handler{comments: comments, tasks: tasks, policy: policy, now: time.Now}
}

// Routes mounts the single-comment endpoints on r (/comments).
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{commentID}", h.Get)
	r.Put("/{commentID}", h.Update)
	r.Delete("/{commentID}", h.Delete)
}

// TaskRoutes mounts the per-task endpoints on r (/tasks/{taskID}/comments).
func (h *Handler) TaskRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// CommentView is the JSON representation of a comment.
type CommentView struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	TaskID         string    `json:"task_id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toView(c *domain.Comment) CommentView {
	return CommentView{
		ID:             c.ID,
		OrganizationID: c.OrgID,
		TaskID:         c.TaskID,
		UserID:         c.UserID,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type contentRequest struct {
	Content string `json:"content"`
}

// List handles GET /tasks/{taskID}/comments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	task, err := h.task(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comments, err := h.comments.ListByTask(r.Context(), p.OrgID, task.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, toView(c))
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

// Get handles GET /comments/{commentID}. Any member of the comment's organization may read it.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comment, err := h.comments.GetByID(r.Context(), p.OrgID, chi.URLParam(r, "commentID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if comment == nil {
		httpx.WriteError(w, r, httpx.NotFound("comment not found"))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(comment))
}

// Create handles POST /tasks/{taskID}/comments. Any member may comment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req contentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	task, err := h.task(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	now := h.now().UTC()
	comment := &domain.Comment{
		ID:        uuid.New().String(),
		OrgID:     task.OrgID,
		TaskID:    task.ID,
		UserID:    p.UserID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := comment.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.comments.Create(r.Context(), comment); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(comment))
}

// Update handles PUT /comments/{commentID}. Author only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req contentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comment, err := h.authorize(r, p, engine.ActionCommentUpdate)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comment.Content = strings.TrimSpace(req.Content)
	if err := comment.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comment.UpdatedAt = h.now().UTC()
	if err := h.comments.Update(r.Context(), comment); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(comment))
}

// Delete handles DELETE /comments/{commentID}. Author only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	comment, err := h.authorize(r, p, engine.ActionCommentDelete)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ok, err := h.comments.Delete(r.Context(), p.OrgID, comment.ID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !ok {
		httpx.WriteError(w, r, httpx.NotFound("comment not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize loads the comment and asks the policy engine whether p may perform action on it.
func (h *Handler) authorize(r *http.Request, p *rbac.Principal, action engine.Action) (*domain.Comment, error) {
	comment, err := h.comments.GetByID(r.Context(), p.OrgID, chi.URLParam(r, "commentID"))
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, httpx.NotFound("comment not found")
	}
	allowed, err := h.policy.Allow(r.Context(), engine.Input{
		Action:   action,
		Subject:  engine.Subject{UserID: p.UserID, OrgID: p.OrgID, Role: string(p.Role)},
		Resource: engine.Resource{OrgID: comment.OrgID, AuthorID: comment.UserID},
	})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, rbac.ErrForbidden
	}
	return comment, nil
}

func (h *Handler) task(r *http.Request, orgID string) (*taskdomain.Task, error) {
	task, err := h.tasks.GetByID(r.Context(), orgID, chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, httpx.NotFound("task not found")
	}
	return task, nil
}
