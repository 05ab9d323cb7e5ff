package middleware

import (
	"log/slog"
	"net/http"

	"projecthub/backend/internal/platform/httpx"
	"projecthub/backend/internal/platform/rbac"
	roledomain "projecthub/backend/internal/role/domain"
)

// Authenticate validates the Bearer access token and stores the principal in the request context.
// Requests without a valid access token get 401 with a Bearer challenge.
func Authenticate(decoder rbac.TokenDecoder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := rbac.Authenticate(decoder, r.Header.Get("Authorization"))
			if err != nil {
				slog.DebugContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
				httpx.WriteError(w, r, rbac.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireTenant rejects principals without an organization with 403.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := rbac.RequireTenant(r.Context()); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles rejects principals whose role is outside allowed with 403.
func RequireRoles(allowed ...roledomain.Name) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := rbac.RequireRoles(r.Context(), allowed...); err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
