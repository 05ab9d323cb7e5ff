// Package handler exposes registration, login and token refresh over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"projecthub/backend/internal/identity/service"
	membershipdomain "projecthub/backend/internal/membership/domain"
	"projecthub/backend/internal/platform/httpx"
)

const tokenTypeBearer = "bearer"

// Authenticator is the part of the auth service the handler needs.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password, orgID string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
}

// Handler serves /auth endpoints.
type Handler struct {
	auth Authenticator
}

// NewHandler returns a Handler backed by auth.
func NewHandler(auth Authenticator) *Handler {
	return &Handler{auth: auth}
}

// Routes mounts the public auth endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	OrganizationName string `json:"organization_name"`
	OrganizationSlug string `json:"organization_slug"`
	OrganizationID   string `json:"organization_id"`
	Role             string `json:"role"`
}

type registerResponse struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	TokenType      string `json:"token_type"`
}

type loginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organization_id"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		OrganizationName: req.OrganizationName,
		OrganizationSlug: req.OrganizationSlug,
		OrganizationID:   req.OrganizationID,
		Role:             req.Role,
	})
	if err != nil {
		httpx.WriteError(w, r, err, mapAuthError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		UserID:         res.UserID,
		OrganizationID: res.OrgID,
		AccessToken:    res.AccessToken,
		RefreshToken:   res.RefreshToken,
		TokenType:      tokenTypeBearer,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password, req.OrganizationID)
	if err != nil {
		httpx.WriteError(w, r, err, mapAuthError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    tokenTypeBearer,
	})
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, r, err, mapAuthError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: res.AccessToken, TokenType: tokenTypeBearer})
}

// mapAuthError maps auth service errors to HTTP envelopes.
func mapAuthError(err error) *httpx.Error {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return httpx.NewError(http.StatusBadRequest, "duplicate_email", service.ErrDuplicateEmail)
	case errors.Is(err, service.ErrSlugTaken):
		return httpx.NewError(http.StatusBadRequest, "slug_taken", service.ErrSlugTaken)
	case errors.Is(err, service.ErrOrgNotFound):
		return httpx.NewError(http.StatusBadRequest, "organization_not_found", service.ErrOrgNotFound)
	case errors.Is(err, membershipdomain.ErrDuplicateMembership):
		return httpx.NewError(http.StatusBadRequest, "duplicate_membership", membershipdomain.ErrDuplicateMembership)
	case errors.Is(err, service.ErrInvalidCredentials):
		return httpx.NewError(http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials)
	case errors.Is(err, service.ErrInvalidRefreshPayload):
		return httpx.NewError(http.StatusUnauthorized, "invalid_token", service.ErrInvalidRefreshPayload)
	case errors.Is(err, service.ErrUserNotFound):
		return httpx.NewError(http.StatusUnauthorized, "user_not_found", service.ErrUserNotFound)
	case errors.Is(err, service.ErrAccountInactive):
		return httpx.NewError(http.StatusForbidden, "account_inactive", service.ErrAccountInactive)
	case errors.Is(err, service.ErrNoActiveMembership):
		return httpx.NewError(http.StatusForbidden, "no_active_membership", service.ErrNoActiveMembership)
	}
	return nil
}
