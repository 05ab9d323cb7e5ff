package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	boarddomain "projecthub/backend/internal/board/domain"
	membershipdomain "projecthub/backend/internal/membership/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/policy/engine"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/task/domain"
	"projecthub/backend/internal/task/repository"
)

type memTaskRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Task
}

var _ repository.Repository = (*memTaskRepo)(nil)

func (m *memTaskRepo) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = *t
	return nil
}

func (m *memTaskRepo) GetByID(_ context.Context, orgID, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.OrgID != orgID {
		return nil, nil
	}
	return &t, nil
}

func (m *memTaskRepo) ListByBoard(_ context.Context, orgID, boardID string, f domain.Filter, limit, offset int) ([]*domain.Task, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Task
	for _, t := range m.byID {
		if t.OrgID != orgID || t.BoardID != boardID {
			continue
		}
		if (f.Status != "" && t.Status != f.Status) || (f.AssignedTo != "" && t.AssignedTo != f.AssignedTo) {
			continue
		}
		t := t
		all = append(all, &t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (m *memTaskRepo) Update(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = *t
	return nil
}

func (m *memTaskRepo) Delete(_ context.Context, orgID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.OrgID != orgID {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type memBoards map[string]*boarddomain.Board

func (m memBoards) GetByID(_ context.Context, orgID, id string) (*boarddomain.Board, error) {
	if b, ok := m[id]; ok && b.OrgID == orgID {
		return b, nil
	}
	return nil, nil
}

type memMembers map[string]*membershipdomain.Membership

func (m memMembers) GetMembershipByUserAndOrg(_ context.Context, userID, orgID string) (*membershipdomain.Membership, error) {
	if ms, ok := m[userID]; ok && ms.OrgID == orgID {
		return ms, nil
	}
	return nil, nil
}

type denyAll struct{ err error }

func (d denyAll) Allow(context.Context, engine.Input) (bool, error) { return false, d.err }

var (
	admin     = &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin}
	manager   = &rbac.Principal{UserID: "u2", OrgID: "o1", Role: roledomain.ProjectManager}
	creator   = &rbac.Principal{UserID: "u3", OrgID: "o1", Role: roledomain.Member}
	assignee  = &rbac.Principal{UserID: "u4", OrgID: "o1", Role: roledomain.Member}
	bystander = &rbac.Principal{UserID: "u5", OrgID: "o1", Role: roledomain.Member}
	outside   = &rbac.Principal{UserID: "u9", OrgID: "o2", Role: roledomain.OrgAdmin}
)

func newHandler(t *testing.T, policy engine.Evaluator) *Handler {
	t.Helper()
	if policy == nil {
		e, err := engine.NewOPAEvaluator(context.Background(), "")
		if err != nil {
			t.Fatalf("NewOPAEvaluator: %v", err)
		}
		policy = e
	}
	boards := memBoards{
		"b1": {ID: "b1", OrgID: "o1", ProjectID: "p1", IsActive: true},
		"b2": {ID: "b2", OrgID: "o1", ProjectID: "p1", IsActive: true},
		"bx": {ID: "bx", OrgID: "o2", ProjectID: "px", IsActive: true},
	}
	members := memMembers{
		"u1": {UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin, IsActive: true},
		"u3": {UserID: "u3", OrgID: "o1", Role: roledomain.Member, IsActive: true},
		"u4": {UserID: "u4", OrgID: "o1", Role: roledomain.Member, IsActive: true},
		"u6": {UserID: "u6", OrgID: "o1", Role: roledomain.Member, IsActive: false},
		"u9": {UserID: "u9", OrgID: "o2", Role: roledomain.OrgAdmin, IsActive: true},
	}
	return NewHandler(&memTaskRepo{byID: map[string]domain.Task{}}, boards, members, policy)
}

func serve(h *Handler, method, target, body string, p *rbac.Principal) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/boards/{boardID}/tasks", h.BoardRoutes)
	r.Route("/tasks", h.Routes)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(rbac.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createTask(t *testing.T, h *Handler, p *rbac.Principal, body string) TaskView {
	t.Helper()
	rec := serve(h, http.MethodPost, "/boards/b1/tasks", body, p)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body)
	}
	var v TaskView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCreate(t *testing.T) {
	h := newHandler(t, nil)
	v := createTask(t, h, creator, `{"title":"Write docs","assigned_to":"u4"}`)
	if v.Status != "TODO" || v.Priority != "MEDIUM" || v.CreatedBy != "u3" || v.OrganizationID != "o1" {
		t.Errorf("defaults = %+v", v)
	}
	if v.AssignedTo == nil || *v.AssignedTo != "u4" {
		t.Errorf("assigned_to = %v, want u4", v.AssignedTo)
	}

	testCases := []struct {
		name     string
		target   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown status", "/boards/b1/tasks", `{"title":"x","status":"ARCHIVED"}`, http.StatusBadRequest, httpx.CodeValidation},
		{"unknown priority", "/boards/b1/tasks", `{"title":"x","priority":"CRITICAL"}`, http.StatusBadRequest, httpx.CodeValidation},
		{"missing title", "/boards/b1/tasks", `{}`, http.StatusBadRequest, httpx.CodeValidation},
		{"assignee outside org", "/boards/b1/tasks", `{"title":"x","assigned_to":"u9"}`, http.StatusBadRequest, httpx.CodeValidation},
		{"inactive assignee", "/boards/b1/tasks", `{"title":"x","assigned_to":"u6"}`, http.StatusBadRequest, httpx.CodeValidation},
		{"board of another org", "/boards/bx/tasks", `{"title":"x"}`, http.StatusNotFound, httpx.CodeNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, http.MethodPost, tc.target, tc.body, creator)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tc.wantCode, rec.Body)
			}
			var env httpx.Error
			_ = json.NewDecoder(rec.Body).Decode(&env)
			if env.Code != tc.wantErr {
				t.Errorf("code = %q, want %q", env.Code, tc.wantErr)
			}
		})
	}
}

func TestUpdate_OwnershipPolicy(t *testing.T) {
	testCases := []struct {
		name     string
		p        *rbac.Principal
		wantCode int
	}{
		{"admin", admin, http.StatusOK},
		{"manager", manager, http.StatusOK},
		{"creator", creator, http.StatusOK},
		{"assignee", assignee, http.StatusOK},
		{"other member", bystander, http.StatusForbidden},
		{"other organization", outside, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(t, nil)
			v := createTask(t, h, creator, `{"title":"Write docs","assigned_to":"u4"}`)
			rec := serve(h, http.MethodPut, "/tasks/"+v.ID, `{"status":"in_progress"}`, tc.p)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tc.wantCode, rec.Body)
			}
			if tc.wantCode != http.StatusOK {
				return
			}
			var got TaskView
			_ = json.NewDecoder(rec.Body).Decode(&got)
			if got.Status != "IN_PROGRESS" || got.Title != "Write docs" {
				t.Errorf("updated = %+v", got)
			}
		})
	}
}

func TestUpdate_PolicyFailureDenies(t *testing.T) {
	h := newHandler(t, denyAll{err: errors.New("engine down")})
	v := createTask(t, h, creator, `{"title":"x"}`)
	if rec := serve(h, http.MethodPut, "/tasks/"+v.ID, `{"title":"y"}`, admin); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestUpdate_MoveAndReassign(t *testing.T) {
	h := newHandler(t, nil)
	v := createTask(t, h, creator, `{"title":"x","assigned_to":"u4"}`)

	if rec := serve(h, http.MethodPut, "/tasks/"+v.ID, `{"board_id":"bx"}`, manager); rec.Code != http.StatusBadRequest {
		t.Errorf("move to another org's board: status = %d, want 400", rec.Code)
	}
	if rec := serve(h, http.MethodPut, "/tasks/"+v.ID, `{"assigned_to":"u9"}`, manager); rec.Code != http.StatusBadRequest {
		t.Errorf("assign outside org: status = %d, want 400", rec.Code)
	}
	rec := serve(h, http.MethodPut, "/tasks/"+v.ID, `{"board_id":"b2","assigned_to":""}`, manager)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: status = %d, body %s", rec.Code, rec.Body)
	}
	var got TaskView
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if got.BoardID != "b2" || got.AssignedTo != nil {
		t.Errorf("moved = %+v, want board b2 and no assignee", got)
	}
}

func TestListFilters(t *testing.T) {
	h := newHandler(t, nil)
	createTask(t, h, creator, `{"title":"a","status":"DONE","assigned_to":"u4"}`)
	createTask(t, h, creator, `{"title":"b","status":"DONE"}`)
	createTask(t, h, creator, `{"title":"c","assigned_to":"u4"}`)

	testCases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?status=done", 2},
		{"?assigned_to=u4", 2},
		{"?status=DONE&assigned_to=u4", 1},
		{"?page_size=1&page=3", 3},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/boards/b1/tasks"+tc.query, "", bystander)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var got httpx.ListResponse[TaskView]
			_ = json.NewDecoder(rec.Body).Decode(&got)
			if got.Total != tc.want {
				t.Errorf("total = %d, want %d", got.Total, tc.want)
			}
		})
	}
	if rec := serve(h, http.MethodGet, "/boards/b1/tasks?status=nope", "", bystander); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: status = %d, want 400", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	h := newHandler(t, nil)
	v := createTask(t, h, creator, `{"title":"x"}`)
	if rec := serve(h, http.MethodDelete, "/tasks/"+v.ID, "", creator); rec.Code != http.StatusForbidden {
		t.Errorf("creator delete: status = %d, want 403", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/tasks/"+v.ID, "", outside); rec.Code != http.StatusNotFound {
		t.Errorf("cross-tenant delete: status = %d, want 404", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/tasks/"+v.ID, "", manager); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/tasks/"+v.ID, "", manager); rec.Code != http.StatusNotFound {
		t.Errorf("deleted task: status = %d, want 404", rec.Code)
	}
}
