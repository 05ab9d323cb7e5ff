// Package httpx holds the JSON response helpers and the error envelope shared by all HTTP handlers.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"projecthub/backend/internal/platform/rbac"
	"projecthub/backend/internal/platform/validation"
	"projecthub/backend/internal/security"
)

// Error codes returned in the envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNoTenant     = "no_tenant"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

// Error is the JSON error envelope and also an error that handlers return to pick a status.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the error the envelope was built from.
func (e *Error) Unwrap() error { return e.cause }

// NewError returns an envelope for status and code wrapping cause. The message is cause's text.
func NewError(status int, code string, cause error) *Error {
	return &Error{Status: status, Code: code, Message: cause.Error(), cause: cause}
}

// NotFound returns a 404 envelope with message.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// BadRequest returns a 400 envelope with message.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

// ErrorMapper turns a package's sentinel errors into envelopes. It returns nil for errors it does not know.
type ErrorMapper func(error) *Error

// Classify resolves err into an envelope, consulting mappers before the shared rules.
// Unknown errors become a generic 500.
func Classify(err error, mappers ...ErrorMapper) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, m := range mappers {
		if e := m(err); e != nil {
			return e
		}
	}
	if ve, ok := validation.As(err); ok {
		return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: ve.Error(), Field: ve.Field, cause: err}
	}
	switch {
	case errors.Is(err, rbac.ErrUnauthorized):
		return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: rbac.ErrUnauthorized.Error(), cause: err}
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrWrongTokenType):
		return &Error{Status: http.StatusUnauthorized, Code: "invalid_token", Message: rbac.ErrUnauthorized.Error(), cause: err}
	case errors.Is(err, rbac.ErrNoTenant):
		return NewError(http.StatusForbidden, CodeNoTenant, rbac.ErrNoTenant)
	case errors.Is(err, rbac.ErrForbidden):
		return NewError(http.StatusForbidden, CodeForbidden, rbac.ErrForbidden)
	}
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error", cause: err}
}

// WriteError classifies err and writes the envelope. 401 responses carry a Bearer challenge.
// 5xx causes are logged; their text never reaches the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, mappers ...ErrorMapper) {
	e := Classify(err, mappers...)
	if e.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if e.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, e.Status, e)
}
