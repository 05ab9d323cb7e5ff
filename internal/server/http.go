// Package server assembles the HTTP router from the feature handlers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"projecthub/backend/internal/audit"
	audithandler "projecthub/backend/internal/audit/handler"
	boardhandler "projecthub/backend/internal/board/handler"
	boardrepo "projecthub/backend/internal/board/repository"
	commenthandler "projecthub/backend/internal/comment/handler"
	commentrepo "projecthub/backend/internal/comment/repository"
	healthhandler "projecthub/backend/internal/health/handler"
	identityhandler "projecthub/backend/internal/identity/handler"
	membershiphandler "projecthub/backend/internal/membership/handler"
	organizationhandler "projecthub/backend/internal/organization/handler"
	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/policy/engine"
	projecthandler "projecthub/backend/internal/project/handler"
	projectrepo "projecthub/backend/internal/project/repository"
	"projecthub/backend/internal/server/middleware"
	"projecthub/backend/internal/store"
	taskhandler "projecthub/backend/internal/task/handler"
	taskrepo "projecthub/backend/internal/task/repository"
	"projecthub/backend/internal/telemetry"
	userhandler "projecthub/backend/internal/user/handler"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// Deps holds the dependencies of the HTTP handlers. Fields documented as optional may be nil.
type Deps struct {
	// Auth serves register, login and refresh.
	Auth identityhandler.Authenticator
	// Tokens decodes Bearer access tokens for protected routes.
	Tokens rbac.TokenDecoder

	Users       userhandler.UserLister
	Orgs        organizationhandler.OrgStore
	Members     membershiphandler.MemberStore
	Projects    projectrepo.Repository
	Boards      boardrepo.Repository
	Tasks       taskrepo.Repository
	Comments    commentrepo.Repository
	Memberships taskhandler.MembershipReader
	// Tx runs member role changes in one transaction.
	Tx store.TxRunner

	// Policy decides ownership rules for task and comment edits.
	Policy engine.Evaluator

	// AuditLogs backs GET /audit-logs. Optional; the route is not mounted when nil.
	AuditLogs audithandler.Lister
	// AuditLogger records state-changing requests. Optional.
	AuditLogger audit.AuditLogger
	// Events receives one http_request event per API request. Optional.
	Events telemetry.EventEmitter

	// HealthPinger is used for readiness (e.g. *sql.DB). Optional; the check is skipped when nil.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used for readiness. Optional; the check is skipped when nil.
	HealthPolicyChecker healthhandler.PolicyChecker

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
}

// NewRouter returns the application router.
//
// Public routes:
//   - GET  /health, /health/ready
//   - POST /api/v1/auth/{register,login,refresh}
//
// Every other /api/v1 route requires a Bearer access token carrying an organization.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CaptureClientIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(middleware.Tracing)

	r.Route("/health", healthhandler.NewHandler(deps.HealthPinger, deps.HealthPolicyChecker).Routes)

	r.Route(APIPrefix, func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(middleware.Telemetry(deps.Events))
			public.Route("/auth", identityhandler.NewHandler(deps.Auth).Routes)
		})

		api.Group(func(p chi.Router) {
			p.Use(middleware.Authenticate(deps.Tokens))
			p.Use(middleware.RequireTenant)
			p.Use(middleware.Audit(deps.AuditLogger))
			p.Use(middleware.Telemetry(deps.Events))

			projects := projecthandler.NewHandler(deps.Projects)
			boards := boardhandler.NewHandler(deps.Boards, deps.Projects)
			tasks := taskhandler.NewHandler(deps.Tasks, deps.Boards, deps.Memberships, deps.Policy)
			comments := commenthandler.NewHandler(deps.Comments, deps.Tasks, deps.Policy)

			p.Route("/users", userhandler.NewHandler(deps.Users).Routes)
			p.Route("/organizations/current", func(r chi.Router) {
				organizationhandler.NewHandler(deps.Orgs).Routes(r)
				r.Route("/members", membershiphandler.NewHandler(deps.Members, deps.Tx).Routes)
			})
			p.Route("/projects", func(r chi.Router) {
				projects.Routes(r)
				r.Route("/{projectID}/boards", boards.ProjectRoutes)
			})
			p.Route("/boards", func(r chi.Router) {
				boards.Routes(r)
				r.Route("/{boardID}/tasks", tasks.BoardRoutes)
			})
			p.Route("/tasks", func(r chi.Router) {
				tasks.Routes(r)
				r.Route("/{taskID}/comments", comments.TaskRoutes)
			})
			p.Route("/comments", comments.Routes)
			if deps.AuditLogs != nil {
				p.Route("/audit-logs", audithandler.NewHandler(deps.AuditLogs).Routes)
			}
		})
	})
	return r
}
