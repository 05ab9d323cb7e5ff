package rbac

import (
	"context"
	"errors"
	"strings"

	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/security"
)

var (
	// ErrUnauthorized is returned when the bearer token is missing, malformed, invalid or not an access token.
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrNoTenant is returned when an authenticated principal carries no organization.
	ErrNoTenant = errors.New("no organization context")
	// ErrForbidden is returned when the principal's role is outside the allowed set.
	ErrForbidden = errors.New("insufficient permissions")
)

// Managers may create, update and delete projects and boards and delete tasks.
var Managers = []roledomain.Name{roledomain.OrgAdmin, roledomain.ProjectManager}

const bearerPrefix = "bearer "

// TokenDecoder decodes and verifies a signed token.
type TokenDecoder interface {
	Decode(token string) (*security.Claims, error)
}

// BearerToken returns the token from an Authorization header value, or "" if missing or malformed.
// The scheme is matched case-insensitively.
func BearerToken(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// Authenticate verifies the Authorization header and returns the principal of a valid access token.
// Every failure is ErrUnauthorized; the underlying cause is wrapped for logging.
func Authenticate(decoder TokenDecoder, authorization string) (*Principal, error) {
	token := BearerToken(authorization)
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := decoder.Decode(token)
	if err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}
	if err := security.VerifyKind(claims, security.TokenAccess); err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}
	if claims.UserID == "" {
		return nil, ErrUnauthorized
	}
	p := &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		OrgID:     claims.OrganizationID,
	}
	if claims.Role != "" {
		role, err := roledomain.ParseName(claims.Role)
		if err != nil {
			return nil, errors.Join(ErrUnauthorized, err)
		}
		p.Role = role
	}
	return p, nil
}

// RequireTenant returns the principal in ctx. It fails with ErrUnauthorized when no principal
// is present and ErrNoTenant when the principal has no organization.
func RequireTenant(ctx context.Context) (*Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if p.OrgID == "" {
		return nil, ErrNoTenant
	}
	return p, nil
}

// RequireRoles is RequireTenant plus a role check against allowed.
func RequireRoles(ctx context.Context, allowed ...roledomain.Name) (*Principal, error) {
	p, err := RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(allowed...) {
		return nil, ErrForbidden
	}
	return p, nil
}

// RequireOrgAdmin admits only ORG_ADMIN.
func RequireOrgAdmin(ctx context.Context) (*Principal, error) {
	return RequireRoles(ctx, roledomain.OrgAdmin)
}

// RequireManager admits ORG_ADMIN and PROJECT_MANAGER.
func RequireManager(ctx context.Context) (*Principal, error) {
	return RequireRoles(ctx, Managers...)
}
