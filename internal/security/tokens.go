package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, tampered with, signed
	// with another algorithm or key, or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is returned when a valid token is presented for the other purpose.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrInvalidTTL is returned when a token would be issued with a non-positive lifetime.
	ErrInvalidTTL = errors.New("token ttl must be positive")
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Valid reports whether k is a known kind.
func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Claims is the signed payload. Access tokens carry the profile, tenant and
// role; refresh tokens carry only UserID.
type Claims struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email,omitempty"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           string    `json:"role,omitempty"`
	TokenType      TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenCodec issues and decodes signed, expiring tokens with a fixed algorithm.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	keys       *KeySet
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec returns a codec signing with keys and using the given default lifetimes.
func NewTokenCodec(keys *KeySet, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		keys:       keys,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// AccessTTL returns the default access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the default refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs claims as a token of the given kind valid for ttl. TokenType,
// IssuedAt and ExpiresAt are set here; any values in claims are overwritten.
func (c *TokenCodec) Issue(claims Claims, kind TokenKind, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	// NumericDate has second precision; truncating keeps exp == iat + ttl.
	now := c.now().UTC().Truncate(time.Second)
	claims.TokenType = kind
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(c.keys.method, claims).SignedString(c.keys.signKey)
}

// IssueAccess issues an access token with the default access lifetime.
func (c *TokenCodec) IssueAccess(claims Claims) (string, error) {
	return c.Issue(claims, TokenAccess, c.accessTTL)
}

// IssueRefresh issues a refresh token for userID with the default refresh lifetime.
func (c *TokenCodec) IssueRefresh(userID string) (string, error) {
	return c.Issue(Claims{UserID: userID}, TokenRefresh, c.refreshTTL)
}

// Decode verifies signature, algorithm and expiry and returns the claims.
// A token is expired once now >= exp. Every failure wraps ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{c.keys.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || !claims.TokenType.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != c.keys.Algorithm() {
		return nil, ErrInvalidToken
	}
	return c.keys.verifyKey, nil
}

// VerifyKind returns ErrWrongTokenType unless claims were issued as want.
func VerifyKind(claims *Claims, want TokenKind) error {
	if claims == nil || claims.TokenType != want {
		return ErrWrongTokenType
	}
	return nil
}
