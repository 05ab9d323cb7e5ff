package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"projecthub/backend/internal/audit"
	"projecthub/backend/internal/platform/rbac"
)

type auditMetadata struct {
	Path      string `json:"path"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// Audit records one audit entry per state-changing request made by a principal with an organization.
// Reads are not audited. Entries are best-effort and never change the response.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger == nil || !isMutation(r.Method) {
				return
			}
			p, ok := rbac.PrincipalFrom(r.Context())
			if !ok || p.OrgID == "" {
				return
			}
			ar := audit.ParseRoute(r.Method, routePattern(r))
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta, _ := json.Marshal(auditMetadata{Path: r.URL.Path, Status: status, RequestID: chimw.GetReqID(r.Context())})
			logger.LogEvent(r.Context(), p.OrgID, p.UserID, outcomeAction(ar.Action, status), ar.Resource, string(meta))
		})
	}
}

// outcomeAction suffixes action so rejected attempts are not recorded as changes:
// 401/403 become <action>_denied, other 4xx/5xx become <action>_failed.
func outcomeAction(action string, status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return action + "_denied"
	case status >= http.StatusBadRequest:
		return action + "_failed"
	}
	return action
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// routePattern returns the matched chi route pattern, falling back to the raw path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
