package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/platform/validation"
	"projecthub/backend/internal/security"
)

var errCustom = errors.New("project slug already exists")

func customMapper(err error) *Error {
	if errors.Is(err, errCustom) {
		return NewError(http.StatusConflict, CodeConflict, errCustom)
	}
	return nil
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantChallenge bool
	}{
		{"validation", validation.New("email", "is not a valid email address"), 400, CodeValidation, false},
		{"wrapped validation", fmt.Errorf("register: %w", validation.New("password", "too short")), 400, CodeValidation, false},
		{"unauthorized", rbac.ErrUnauthorized, 401, CodeUnauthorized, true},
		{"invalid token", security.ErrInvalidToken, 401, "invalid_token", true},
		{"wrong token type", security.ErrWrongTokenType, 401, "invalid_token", true},
		{"no tenant", rbac.ErrNoTenant, 403, CodeNoTenant, false},
		{"forbidden", rbac.ErrForbidden, 403, CodeForbidden, false},
		{"not found", NotFound("project not found"), 404, CodeNotFound, false},
		{"mapped", fmt.Errorf("create: %w", errCustom), 409, CodeConflict, false},
		{"internal", errors.New("pq: connection refused"), 500, CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/x", nil)
			WriteError(rec, req, tt.err, customMapper)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body Error
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus || body.Code != tt.wantCode {
				t.Errorf("envelope = %+v, want status %d code %s", body, tt.wantStatus, tt.wantCode)
			}
			if got := rec.Header().Get("WWW-Authenticate") == "Bearer"; got != tt.wantChallenge {
				t.Errorf("WWW-Authenticate challenge = %v, want %v", got, tt.wantChallenge)
			}
			if tt.wantStatus == 500 && strings.Contains(body.Message, "pq") {
				t.Errorf("internal error leaked: %q", body.Message)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"a"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"a","x":1}`, true},
		{"trailing object", `{"name":"a"}{"name":"b"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(rec, req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var e *Error
				if !errors.As(err, &e) || e.Status < 400 || e.Status >= 500 {
					t.Errorf("err = %v, want 4xx *Error", err)
				}
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
		wantErr      bool
	}{
		{"", 1, DefaultPageSize, false},
		{"page=3&page_size=10", 3, 10, false},
		{"page=0", 0, 0, true},
		{"page=x", 0, 0, true},
		{"page_size=0", 0, 0, true},
		{"page_size=101", 0, 0, true},
		{"page_size=100", 1, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			p, err := ParsePage(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePage: %v", err)
			}
			if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize {
				t.Errorf("page = %+v", p)
			}
		})
	}
	if off := (Page{Page: 3, PageSize: 10}).Offset(); off != 20 {
		t.Errorf("Offset = %d, want 20", off)
	}
}

func TestNewListResponse_NilItems(t *testing.T) {
	resp := NewListResponse[string](nil, 0, Page{Page: 1, PageSize: 20})
	b, _ := json.Marshal(resp)
	if !strings.Contains(string(b), `"items":[]`) {
		t.Errorf("nil items should encode as [], got %s", b)
	}
}
