package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/audit/domain"
	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	roledomain "projecthub/backend/internal/role/domain"
)

type mockLister struct {
	mu        sync.Mutex
	gotOrg    string
	gotFilter domain.Filter
	gotLimit  int
	gotOffset int
	logs      []*domain.AuditLog
	total     int
	err       error
}

func (m *mockLister) ListByOrg(_ context.Context, orgID string, f domain.Filter, limit, offset int) ([]*domain.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotOrg, m.gotFilter, m.gotLimit, m.gotOffset = orgID, f, limit, offset
	return m.logs, m.total, m.err
}

func serve(h *Handler, target string, p *rbac.Principal) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/audit-logs", h.Routes)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(rbac.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	m := &mockLister{
		logs:  []*domain.AuditLog{{ID: "a1", OrgID: "o1", Action: "login_success", Resource: "authentication"}},
		total: 7,
	}
	h := NewHandler(m)
	admin := &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin}

	rec := serve(h, "/audit-logs?action=login_success&user_id=u2&resource=authentication&page=2&page_size=3", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if m.gotOrg != "o1" {
		t.Errorf("org = %q, want the caller's organization", m.gotOrg)
	}
	want := domain.Filter{UserID: "u2", Action: "login_success", Resource: "authentication"}
	if m.gotFilter != want {
		t.Errorf("filter = %+v, want %+v", m.gotFilter, want)
	}
	if m.gotLimit != 3 || m.gotOffset != 3 {
		t.Errorf("limit/offset = %d/%d, want 3/3", m.gotLimit, m.gotOffset)
	}
	var got httpx.ListResponse[domain.AuditLog]
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 7 || len(got.Items) != 1 || got.Items[0].OrgID != "o1" || got.Page != 2 {
		t.Errorf("response = %+v", got)
	}
}

func TestList_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		p        *rbac.Principal
		target   string
		repoErr  error
		wantCode int
	}{
		{"anonymous", nil, "/audit-logs", nil, http.StatusUnauthorized},
		{"no tenant", &rbac.Principal{UserID: "u1"}, "/audit-logs", nil, http.StatusForbidden},
		{"manager", &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.ProjectManager}, "/audit-logs", nil, http.StatusForbidden},
		{"member", &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.Member}, "/audit-logs", nil, http.StatusForbidden},
		{"bad page", &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin}, "/audit-logs?page=0", nil, http.StatusBadRequest},
		{"repository failure", &rbac.Principal{UserID: "u1", OrgID: "o1", Role: roledomain.OrgAdmin}, "/audit-logs", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(NewHandler(&mockLister{err: tc.repoErr}), tc.target, tc.p)
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}
