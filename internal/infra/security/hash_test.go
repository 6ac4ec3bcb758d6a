package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("S3cure!Passw0rd")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	parts := strings.Split(hash, ":")
	if len(parts) != 2 {
		t.Fatalf("expected salt:hash encoding, got %q", hash)
	}

	ok, err := VerifyPassword("S3cure!Passw0rd", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	first, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordEdgeCases(t *testing.T) {
	if ok, err := VerifyPassword("", "anything"); err != nil || ok {
		t.Fatalf("empty password: ok=%v err=%v", ok, err)
	}
	if ok, err := VerifyPassword("password", ""); err != nil || ok {
		t.Fatalf("empty hash: ok=%v err=%v", ok, err)
	}
	if _, err := VerifyPassword("password", "not-a-valid-encoding"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestHashToken(t *testing.T) {
	first := HashToken("refresh-token-value")
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if first != HashToken("refresh-token-value") {
		t.Fatal("token hash must be deterministic")
	}
	if first == HashToken("other-token") {
		t.Fatal("distinct tokens must hash differently")
	}
}
