package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type fakeCheck struct{ err error }

func (f fakeCheck) PingContext(context.Context) error { return f.err }
func (f fakeCheck) HealthCheck(context.Context) error { return f.err }

func get(h *Handler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/health", h.Routes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLive(t *testing.T) {
	rec := get(NewHandler(fakeCheck{errors.New("down")}, nil), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not depend on the database: status = %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	down := errors.New("down")
	testCases := []struct {
		name       string
		db         Pinger
		policy     PolicyChecker
		wantCode   int
		wantDB     string
		wantPolicy string
	}{
		{"all ok", fakeCheck{}, fakeCheck{}, http.StatusOK, "ok", "ok"},
		{"database down", fakeCheck{down}, fakeCheck{}, http.StatusServiceUnavailable, "fail", "ok"},
		{"policy broken", fakeCheck{}, fakeCheck{down}, http.StatusServiceUnavailable, "ok", "fail"},
		{"nothing wired", nil, nil, http.StatusOK, "skipped", "skipped"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(NewHandler(tc.db, tc.policy), "/health/ready")
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var got statusResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Checks["database"] != tc.wantDB || got.Checks["policy"] != tc.wantPolicy {
				t.Errorf("checks = %v", got.Checks)
			}
		})
	}
}
