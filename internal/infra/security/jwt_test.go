package security

import (
	"errors"
	"testing"
	"time"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

func testSigner(t *testing.T) *TokenSigner {
	t.Helper()

	signer, err := NewTokenSigner("access-secret-a", "refresh-secret-b", 15*time.Minute, 168*time.Hour, "meditech-test")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	return signer
}

func testCredential() domain.Credential {
	return domain.Credential{
		ID:     "cred-42",
		Email:  "nurse@example.com",
		Role:   domain.RoleNurse,
		Status: domain.AccountStatusActive,
	}
}

func TestNewTokenSignerValidation(t *testing.T) {
	if _, err := NewTokenSigner("", "b", 0, 0, "iss"); err == nil {
		t.Fatal("expected error for missing access secret")
	}
	if _, err := NewTokenSigner("a", "", 0, 0, "iss"); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
	if _, err := NewTokenSigner("same", "same", 0, 0, "iss"); err == nil {
		t.Fatal("expected error for identical secrets")
	}
}

func TestSignAndParseAccess(t *testing.T) {
	signer := testSigner(t)
	cred := testCredential()

	token, expiresAt, err := signer.SignAccess(cred)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if until := time.Until(expiresAt); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("unexpected expiry horizon %v", until)
	}

	claims, err := signer.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != cred.ID {
		t.Fatalf("expected subject %q, got %q", cred.ID, claims.Subject)
	}
	if claims.Email != cred.Email || claims.Role != string(cred.Role) {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id claim")
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	signer := testSigner(t)
	cred := testCredential()

	access, _, err := signer.SignAccess(cred)
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	refresh, _, err := signer.SignRefresh(cred)
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}

	if _, err := signer.ParseAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not parse as access, got %v", err)
	}
	if _, err := signer.ParseRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token must not parse as refresh, got %v", err)
	}
}

func TestParseRejectsForeignSigner(t *testing.T) {
	signer := testSigner(t)
	foreign, err := NewTokenSigner("other-access", "other-refresh", time.Minute, time.Hour, "meditech-test")
	if err != nil {
		t.Fatalf("create foreign signer: %v", err)
	}

	token, _, err := foreign.SignAccess(testCredential())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other, err := NewTokenSigner("access-secret-a", "refresh-secret-b", time.Minute, time.Hour, "someone-else")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	token, _, err := other.SignAccess(testCredential())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := testSigner(t).ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	// The constructor clamps non-positive TTLs, so build the signer directly
	// to mint an already-expired token.
	expired := &TokenSigner{
		accessSecret:  []byte("access-secret-a"),
		refreshSecret: []byte("refresh-secret-b"),
		accessTTL:     -time.Minute,
		refreshTTL:    time.Hour,
		issuer:        "meditech-test",
	}

	token, _, err := expired.SignAccess(testCredential())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := testSigner(t).ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTTLDefaults(t *testing.T) {
	signer, err := NewTokenSigner("a-secret", "b-secret", 0, 0, "meditech-test")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	if signer.AccessTTL() != 15*time.Minute {
		t.Fatalf("expected default access ttl, got %v", signer.AccessTTL())
	}
	if signer.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("expected default refresh ttl, got %v", signer.RefreshTTL())
	}
}

func TestParseGarbage(t *testing.T) {
	signer := testSigner(t)

	for _, token := range []string{"", "   ", "garbage", "a.b.c"} {
		if _, err := signer.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}
