package domain

import "time"

// RefreshToken represents a persisted refresh token (stored as a hash of the
// signed value). Revoked rows are never mutated again; ReplacedBy links each
// token to its successor, forming a singly-linked rotation chain.
type RefreshToken struct {
	ID           string
	CredentialID string
	TokenHash    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
	ReplacedBy   *string
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
