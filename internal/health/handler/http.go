// Package handler serves liveness and readiness checks.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/platform/httpx"
)

const readinessTimeout = 2 * time.Second

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is implemented by the policy engine.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves /health.
type Handler struct {
	db     Pinger
	policy PolicyChecker
}

// NewHandler returns a health handler. Either dependency may be nil and is then reported as skipped.
func NewHandler(db Pinger, policy PolicyChecker) *Handler {
	return &Handler{db: db, policy: policy}
}

// Routes mounts the health checks on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Live)
	r.Get("/ready", h.Ready)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live reports that the process is serving.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Ready pings the database and evaluates the policy engine. Returns 503 when any check fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"database": h.check(ctx, "database", h.ping),
		"policy":   h.check(ctx, "policy", h.evalPolicy),
	}
	resp := statusResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	for _, v := range checks {
		if v == "fail" {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	httpx.WriteJSON(w, status, resp)
}

func (h *Handler) ping(ctx context.Context) (bool, error) {
	if h.db == nil {
		return false, nil
	}
	return true, h.db.PingContext(ctx)
}

func (h *Handler) evalPolicy(ctx context.Context) (bool, error) {
	if h.policy == nil {
		return false, nil
	}
	return true, h.policy.HealthCheck(ctx)
}

func (h *Handler) check(ctx context.Context, name string, fn func(context.Context) (bool, error)) string {
	ran, err := fn(ctx)
	switch {
	case !ran:
		return "skipped"
	case err != nil:
		slog.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
		return "fail"
	default:
		return "ok"
	}
}
