package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"projecthub/backend/internal/audit"
	membershipdomain "projecthub/backend/internal/membership/domain"
	membershipservice "projecthub/backend/internal/membership/service"
	orgdomain "projecthub/backend/internal/organization/domain"
	"projecthub/backend/internal/platform/validation"
	roledomain "projecthub/backend/internal/role/domain"
	"projecthub/backend/internal/security"
	"projecthub/backend/internal/store"
	userdomain "projecthub/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrDuplicateEmail        = userdomain.ErrDuplicateEmail
	ErrSlugTaken             = orgdomain.ErrSlugTaken
	ErrOrgNotFound           = errors.New("organization not found")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrAccountInactive       = errors.New("user account is inactive")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidRefreshPayload = errors.New("invalid refresh token payload")
	ErrNoActiveMembership    = membershipdomain.ErrNoActiveMembership
	ErrAmbiguousRegistration = errors.New("provide either organization_id or organization_name and organization_slug")
)

// Audit actions recorded by the auth service.
const (
	ActionRegister     = "register"
	ActionLoginSuccess = "login_success"
	ActionLoginFailure = "login_failure"
	ActionRefresh      = "token_refresh"
	resourceAuth       = "auth"
)

// AuthResult holds the outcome of Register, Login or Refresh. RefreshToken is empty after Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	OrgID        string
	Role         roledomain.Name
}

// RegisterInput is a registration request. When OrganizationID is set the user
// joins that organization with Role (default MEMBER); otherwise a new
// organization is created from OrganizationName and OrganizationSlug and the
// user becomes its ORG_ADMIN.
type RegisterInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	OrganizationName string
	OrganizationSlug string
	OrganizationID   string
	Role             string
}

func (in *RegisterInput) joinMode() bool {
	return in.OrganizationID != ""
}

// UserReader is the minimal user repository needed outside registration.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// MembershipResolver picks the organization and role a user acts under.
type MembershipResolver interface {
	ResolveMembership(ctx context.Context, userID, orgID string) (*membershipservice.Resolution, error)
}

// AuthService implements registration, login and access token refresh.
type AuthService struct {
	users    UserReader
	tx       store.TxRunner
	resolver MembershipResolver
	hasher   *security.Hasher
	tokens   *security.TokenCodec
	audit    audit.AuditLogger
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger may be nil.
func NewAuthService(
	users UserReader,
	tx store.TxRunner,
	resolver MembershipResolver,
	hasher *security.Hasher,
	tokens *security.TokenCodec,
	auditLogger audit.AuditLogger,
) *AuthService {
	return &AuthService{
		users:    users,
		tx:       tx,
		resolver: resolver,
		hasher:   hasher,
		tokens:   tokens,
		audit:    auditLogger,
		now:      time.Now,
	}
}

// Register creates the user, membership and (in new-organization mode) the
// organization in one transaction, then issues a token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = userdomain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	in.OrganizationSlug = strings.TrimSpace(in.OrganizationSlug)
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)

	role, err := validateRegister(&in)
	if err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: digest,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var orgID string

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r store.Repos) error {
		existing, err := r.Users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateEmail
		}

		if in.joinMode() {
			org, err := r.Orgs.GetOrganizationByID(ctx, in.OrganizationID)
			if err != nil {
				return err
			}
			if org == nil || !org.IsActive {
				return ErrOrgNotFound
			}
			orgID = org.ID
		} else {
			taken, err := r.Orgs.GetOrganizationBySlug(ctx, in.OrganizationSlug)
			if err != nil {
				return err
			}
			if taken != nil {
				return ErrSlugTaken
			}
			org := &orgdomain.Org{
				ID:        uuid.New().String(),
				Name:      in.OrganizationName,
				Slug:      in.OrganizationSlug,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := r.Orgs.CreateOrganization(ctx, org); err != nil {
				return err
			}
			orgID = org.ID
		}

		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		roleRow, err := r.Roles.GetOrCreateRole(ctx, role)
		if err != nil {
			return err
		}
		return r.Memberships.CreateMembership(ctx, &membershipdomain.Membership{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			OrgID:     orgID,
			RoleID:    roleRow.ID,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	res, err := s.issuePair(user, &membershipservice.Resolution{OrgID: orgID, Role: role})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, orgID, user.ID, ActionRegister, `{"role":"`+string(role)+`"}`)
	return res, nil
}

// Login verifies credentials and issues a token pair for the user's active
// membership, narrowed to orgID when it is non-empty.
func (s *AuthService) Login(ctx context.Context, email, password, orgID string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt work as a real comparison.
		s.hasher.Verify(password, s.dummyHash())
		s.logEvent(ctx, "", "", ActionLoginFailure, `{"reason":"unknown_email"}`)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logEvent(ctx, "", user.ID, ActionLoginFailure, `{"reason":"bad_password"}`)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logEvent(ctx, "", user.ID, ActionLoginFailure, `{"reason":"inactive"}`)
		return nil, ErrAccountInactive
	}
	resolved, err := s.resolver.ResolveMembership(ctx, user.ID, strings.TrimSpace(orgID))
	if err != nil {
		if errors.Is(err, ErrNoActiveMembership) {
			s.logEvent(ctx, "", user.ID, ActionLoginFailure, `{"reason":"no_membership"}`)
		}
		return nil, err
	}
	res, err := s.issuePair(user, resolved)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, resolved.OrgID, user.ID, ActionLoginSuccess, "")
	return res, nil
}

// Refresh validates a refresh token and issues a new access token whose
// tenant and role are re-derived from current memberships. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := security.VerifyKind(claims, security.TokenRefresh); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidRefreshPayload
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	resolved, err := s.resolver.ResolveMembership(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(accessClaims(user, resolved))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	s.logEvent(ctx, resolved.OrgID, user.ID, ActionRefresh, "")
	return &AuthResult{
		AccessToken: access,
		ExpiresAt:   s.now().UTC().Add(s.tokens.AccessTTL()),
		UserID:      user.ID,
		OrgID:       resolved.OrgID,
		Role:        resolved.Role,
	}, nil
}

func (s *AuthService) issuePair(user *userdomain.User, resolved *membershipservice.Resolution) (*AuthResult, error) {
	access, err := s.tokens.IssueAccess(accessClaims(user, resolved))
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.now().UTC().Add(s.tokens.AccessTTL()),
		UserID:       user.ID,
		OrgID:        resolved.OrgID,
		Role:         resolved.Role,
	}, nil
}

func accessClaims(user *userdomain.User, resolved *membershipservice.Resolution) security.Claims {
	return security.Claims{
		UserID:         user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		OrganizationID: resolved.OrgID,
		Role:           string(resolved.Role),
	}
}

func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash(uuid.New().String())
	})
	return s.dummyDigest
}

func (s *AuthService) logEvent(ctx context.Context, orgID, userID, action, metadata string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, orgID, userID, action, resourceAuth, metadata)
	}
}

func validateRegister(in *RegisterInput) (roledomain.Name, error) {
	if !userdomain.ValidEmail(in.Email) {
		return "", validation.New("email", "is not a valid email address")
	}
	if err := validation.Length("password", in.Password, 8, 100); err != nil {
		return "", err
	}
	if err := validation.Length("first_name", in.FirstName, 0, 100); err != nil {
		return "", err
	}
	if err := validation.Length("last_name", in.LastName, 0, 100); err != nil {
		return "", err
	}
	if in.joinMode() {
		if in.OrganizationName != "" || in.OrganizationSlug != "" {
			return "", validation.New("organization_id", ErrAmbiguousRegistration.Error())
		}
		if in.Role == "" {
			return roledomain.Member, nil
		}
		role, err := roledomain.ParseName(in.Role)
		if err != nil {
			return "", validation.Errorf("role", "must be one of %s, %s, %s", roledomain.OrgAdmin, roledomain.ProjectManager, roledomain.Member)
		}
		return role, nil
	}
	if in.Role != "" {
		return "", validation.New("role", "can only be chosen when joining an existing organization")
	}
	org := orgdomain.Org{Name: in.OrganizationName, Slug: in.OrganizationSlug}
	if err := org.Validate(); err != nil {
		return "", err
	}
	return roledomain.OrgAdmin, nil
}
