package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	identityservice "projecthub/backend/internal/identity/service"
	membershipservice "projecthub/backend/internal/membership/service"
	"projecthub/backend/internal/policy/engine"
	"projecthub/backend/internal/security"
	"projecthub/backend/internal/store/memstore"
)

type auditEntry struct {
	orgID, userID, action, resource string
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (r *recordingAudit) LogEvent(_ context.Context, orgID, userID, action, resource, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, auditEntry{orgID, userID, action, resource})
}

func (r *recordingAudit) find(action, resource string) (auditEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.action == action && e.resource == resource {
			return e, true
		}
	}
	return auditEntry{}, false
}

func newTestRouter(t *testing.T) (http.Handler, *recordingAudit) {
	t.Helper()
	st := memstore.New()
	repos := st.Repos()
	tokens := security.NewTestTokenCodec()
	rec := &recordingAudit{}
	auth := identityservice.NewAuthService(repos.Users, st, membershipservice.NewResolver(repos.Memberships),
		security.NewHasher(4), tokens, rec)
	policy, err := engine.NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return NewRouter(Deps{
		Auth:                auth,
		Tokens:              tokens,
		Users:               repos.Users,
		Orgs:                repos.Orgs,
		Members:             repos.Memberships,
		Memberships:         repos.Memberships,
		Tx:                  st,
		Policy:              policy,
		AuditLogger:         rec,
		HealthPolicyChecker: policy,
		CORSOrigins:         []string{"http://localhost:3000"},
	}), rec
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type tokens struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
}

func register(t *testing.T, h http.Handler, body map[string]string) tokens {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body)
	}
	var tk tokens
	if err := json.NewDecoder(rec.Body).Decode(&tk); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return tk
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, path := range []string{"/health", "/health/ready"} {
		if rec := do(t, h, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, path := range []string{"/api/v1/users/me", "/api/v1/organizations/current", "/api/v1/projects"} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("%s: missing Bearer challenge", path)
		}
	}
	admin := register(t, h, map[string]string{
		"email": "admin@example.com", "password": "password123", "first_name": "Ada", "last_name": "Admin",
		"organization_name": "Acme", "organization_slug": "acme",
	})
	if rec := do(t, h, http.MethodGet, "/api/v1/users/me", admin.RefreshToken, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token on protected route: status = %d, want 401", rec.Code)
	}
}

func TestRouter_RoleChangeFlow(t *testing.T) {
	h, audits := newTestRouter(t)
	admin := register(t, h, map[string]string{
		"email": "admin@example.com", "password": "password123", "first_name": "Ada", "last_name": "Admin",
		"organization_name": "Acme", "organization_slug": "acme",
	})
	member := register(t, h, map[string]string{
		"email": "member@example.com", "password": "password123", "first_name": "Max", "last_name": "Member",
		"organization_id": admin.OrganizationID, "role": "MEMBER",
	})

	rec := do(t, h, http.MethodGet, "/api/v1/users/me", member.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}
	var me struct {
		Role           string `json:"role"`
		OrganizationID string `json:"organization_id"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&me)
	if me.Role != "MEMBER" || me.OrganizationID != admin.OrganizationID {
		t.Errorf("me = %+v", me)
	}

	rolePath := "/api/v1/organizations/current/members/" + member.UserID + "/role"
	if rec := do(t, h, http.MethodPut, rolePath, member.AccessToken, map[string]string{"role": "ORG_ADMIN"}); rec.Code != http.StatusForbidden {
		t.Errorf("member promoting self: status = %d, want 403", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, rolePath, admin.AccessToken, map[string]string{"role": "PROJECT_MANAGER"}); rec.Code != http.StatusOK {
		t.Fatalf("admin promoting member: status = %d, body %s", rec.Code, rec.Body)
	}
	e, ok := audits.find("role_changed", "user")
	if !ok || e.orgID != admin.OrganizationID || e.userID != admin.UserID {
		t.Errorf("role change audit = %+v, %v", e, ok)
	}
	e, ok = audits.find("role_changed_denied", "user")
	if !ok || e.userID != member.UserID {
		t.Errorf("denied role change audit = %+v, %v", e, ok)
	}

	// The old access token still carries MEMBER; a refresh picks up the new role.
	rec = do(t, h, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": member.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body %s", rec.Code, rec.Body)
	}
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&refreshed)
	rec = do(t, h, http.MethodGet, "/api/v1/users/me", refreshed.AccessToken, nil)
	_ = json.NewDecoder(rec.Body).Decode(&me)
	if me.Role != "PROJECT_MANAGER" {
		t.Errorf("role after refresh = %q, want PROJECT_MANAGER", me.Role)
	}
}

func TestRouter_DeactivatedOrganizationLocksOutMembers(t *testing.T) {
	h, _ := newTestRouter(t)
	admin := register(t, h, map[string]string{
		"email": "admin@example.com", "password": "password123",
		"organization_name": "Acme", "organization_slug": "acme",
	})
	member := register(t, h, map[string]string{
		"email": "member@example.com", "password": "password123", "organization_id": admin.OrganizationID,
	})

	if rec := do(t, h, http.MethodDelete, "/api/v1/organizations/current", member.AccessToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member deactivating: status = %d, want 403", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/organizations/current", admin.AccessToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("admin deactivating: status = %d, body %s", rec.Code, rec.Body)
	}

	for _, email := range []string{"admin@example.com", "member@example.com"} {
		rec := do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password123"})
		if rec.Code != http.StatusForbidden || !bytes.Contains(rec.Body.Bytes(), []byte("no_active_membership")) {
			t.Errorf("login %s: status = %d, body %s", email, rec.Code, rec.Body)
		}
	}
	rec := do(t, h, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": member.RefreshToken})
	if rec.Code != http.StatusForbidden || !bytes.Contains(rec.Body.Bytes(), []byte("no_active_membership")) {
		t.Errorf("refresh: status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
