// Package handler serves board tasks over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	boarddomain "projecthub/backend/internal/board/domain"
	membershipdomain "projecthub/backend/internal/membership/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/platform/validation"
	"projecthub/backend/internal/policy/engine"
	"projecthub/backend/internal/task/domain"
	"projecthub/backend/internal/task/repository"
)

// BoardReader looks up an active board inside an organization.
type BoardReader interface {
	GetByID(ctx context.Context, orgID, id string) (*boarddomain.Board, error)
}

// MembershipReader looks up a user's membership in an organization.
type MembershipReader interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
}

// Handler serves /tasks and /boards/{boardID}/tasks.
type Handler struct {
	tasks   repository.Repository
	boards  BoardReader
	members MembershipReader
	policy  engine.Evaluator
	now     func() time.Time
}

// NewHandler returns a task Handler. policy decides who may update a task.
func NewHandler(tasks repository.Repository, boards BoardReader, members MembershipReader, policy engine.Evaluator) *Handler {
	return &Handler{tasks: tasks, boards: boards, members: members, policy: policy, now: time.Now}
}

// Routes mounts the single-task endpoints on r (/tasks).
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{taskID}", h.Get)
	r.Put("/{taskID}", h.Update)
	r.Delete("/{taskID}", h.Delete)
}

// BoardRoutes mounts the per-board endpoints on r (/boards/{boardID}/tasks).
func (h *Handler) BoardRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// TaskView is the JSON representation of a task.
type TaskView struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	BoardID        string     `json:"board_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssignedTo     *string    `json:"assigned_to"`
	CreatedBy      string     `json:"created_by"`
	DueDate        *time.Time `json:"due_date"`
	Position       int        `json:"position"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toView(t *domain.Task) TaskView {
	v := TaskView{
		ID:             t.ID,
		OrganizationID: t.OrgID,
		BoardID:        t.BoardID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		CreatedBy:      t.CreatedBy,
		DueDate:        t.DueDate,
		Position:       t.Position,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.AssignedTo != "" {
		assigned := t.AssignedTo
		v.AssignedTo = &assigned
	}
	return v
}

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Position    int        `json:"position"`
}

// updateRequest fields are optional. An empty assigned_to unassigns the task.
type updateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Position    *int       `json:"position"`
	BoardID     *string    `json:"board_id"`
}

// List handles GET /boards/{boardID}/tasks with optional status and assigned_to filters.
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
	board, err := h.board(r.Context(), p.OrgID, chi.URLParam(r, "boardID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	f := domain.Filter{AssignedTo: r.URL.Query().Get("assigned_to")}
	if s := r.URL.Query().Get("status"); s != "" {
		if f.Status, err = domain.ParseStatus(s); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	tasks, total, err := h.tasks.ListByBoard(r.Context(), p.OrgID, board.ID, f, page.PageSize, page.Offset())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toView(t))
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewListResponse(views, total, page))
}

// Create handles POST /boards/{boardID}/tasks. Any member may create tasks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ctx := r.Context()
	board, err := h.board(ctx, p.OrgID, chi.URLParam(r, "boardID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	now := h.now().UTC()
	task := &domain.Task{
		ID:          uuid.New().String(),
		OrgID:       board.OrgID,
		BoardID:     board.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      domain.StatusTodo,
		Priority:    domain.PriorityMedium,
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
		CreatedBy:   p.UserID,
		DueDate:     req.DueDate,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status != "" {
		if task.Status, err = domain.ParseStatus(req.Status); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	if req.Priority != "" {
		if task.Priority, err = domain.ParsePriority(req.Priority); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	if err := task.Validate(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.checkAssignee(ctx, p.OrgID, task.AssignedTo); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.tasks.Create(ctx, task); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toView(task))
}

// Get handles GET /tasks/{taskID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	task, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(task))
}

// Update handles PUT /tasks/{taskID}. Managers, the creator and the assignee may update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireTenant(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ctx := r.Context()
	task, err := h.load(r, p.OrgID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	allowed, err := h.policy.Allow(ctx, engine.Input{
		Action:   engine.ActionTaskUpdate,
		Subject:  engine.Subject{UserID: p.UserID, OrgID: p.OrgID, Role: string(p.Role)},
		Resource: engine.Resource{OrgID: task.OrgID, CreatedBy: task.CreatedBy, AssignedTo: task.AssignedTo},
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !allowed {
		httpx.WriteError(w, r, rbac.ErrForbidden)
		return
	}

	if err := h.apply(ctx, p.OrgID, task, req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	task.UpdatedAt = h.now().UTC()
	if err := h.tasks.Update(ctx, task); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(task))
}

func (h *Handler) apply(ctx context.Context, orgID string, task *domain.Task, req updateRequest) error {
	var err error
	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if task.Status, err = domain.ParseStatus(*req.Status); err != nil {
			return err
		}
	}
	if req.Priority != nil {
		if task.Priority, err = domain.ParsePriority(*req.Priority); err != nil {
			return err
		}
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Position != nil {
		task.Position = *req.Position
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if req.AssignedTo != nil {
		task.AssignedTo = strings.TrimSpace(*req.AssignedTo)
		if err := h.checkAssignee(ctx, orgID, task.AssignedTo); err != nil {
			return err
		}
	}
	if req.BoardID != nil && *req.BoardID != task.BoardID {
		board, err := h.boards.GetByID(ctx, orgID, *req.BoardID)
		if err != nil {
			return err
		}
		if board == nil {
			return validation.New("board_id", "must be a board of the organization")
		}
		task.BoardID = board.ID
	}
	return nil
}

// Delete handles DELETE /tasks/{taskID}. Managers only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := rbac.RequireManager(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ok, err := h.tasks.Delete(r.Context(), p.OrgID, chi.URLParam(r, "taskID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !ok {
		httpx.WriteError(w, r, httpx.NotFound("task not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkAssignee requires userID, when set, to hold an active membership in orgID.
func (h *Handler) checkAssignee(ctx context.Context, orgID, userID string) error {
	if userID == "" {
		return nil
	}
	m, err := h.members.GetMembershipByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if m == nil || !m.IsActive {
		return validation.New("assigned_to", "must be an active member of the organization")
	}
	return nil
}

func (h *Handler) board(ctx context.Context, orgID, id string) (*boarddomain.Board, error) {
	board, err := h.boards.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, httpx.NotFound("board not found")
	}
	return board, nil
}

func (h *Handler) load(r *http.Request, orgID string) (*domain.Task, error) {
	task, err := h.tasks.GetByID(r.Context(), orgID, chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, httpx.NotFound("task not found")
	}
	return task, nil
}
