package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

var (
	// ErrTokenInvalid indicates the token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenClaims carries the identity claims embedded in both token kinds.
// Subject is the credential id.
type TokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies HS256 access and refresh tokens. The two
// token kinds are signed with distinct secrets so a refresh token can never
// pass for an access token or vice versa.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenSigner validates the secrets and constructs a signer. Keys are
// injected here rather than read from ambient state so tests can substitute
// deterministic ones.
func NewTokenSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenSigner, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("both signing secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh signing secrets must be distinct")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenSigner{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenSigner) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenSigner) RefreshTTL() time.Duration { return s.refreshTTL }

// SignAccess mints an access token for the credential.
func (s *TokenSigner) SignAccess(cred domain.Credential) (string, time.Time, error) {
	return s.sign(cred, s.accessSecret, s.accessTTL)
}

// SignRefresh mints a refresh token for the credential.
func (s *TokenSigner) SignRefresh(cred domain.Credential) (string, time.Time, error) {
	return s.sign(cred, s.refreshSecret, s.refreshTTL)
}

func (s *TokenSigner) sign(cred domain.Credential, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	claims := TokenClaims{
		Email: cred.Email,
		Role:  string(cred.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccess validates an access token and returns its claims.
func (s *TokenSigner) ParseAccess(token string) (*TokenClaims, error) {
	return s.parse(token, s.accessSecret)
}

// ParseRefresh validates a refresh token and returns its claims.
func (s *TokenSigner) ParseRefresh(token string) (*TokenClaims, error) {
	return s.parse(token, s.refreshSecret)
}

func (s *TokenSigner) parse(token string, secret []byte) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
