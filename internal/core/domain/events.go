package domain

import "time"

// UserRegisteredEvent is published when a new credential is provisioned.
type UserRegisteredEvent struct {
	EventID      string
	CredentialID string
	Email        string
	Role         string
	Status       string
	RegisteredAt time.Time
}

// LoginFailedEvent is published for every failed authentication attempt.
type LoginFailedEvent struct {
	EventID        string
	CredentialID   *string
	Email          string
	FailedAttempts int
	IPAddress      *string
	OccurredAt     time.Time
}

// AccountLockedEvent is published when the failed-attempt threshold trips the lockout.
type AccountLockedEvent struct {
	EventID      string
	CredentialID string
	Email        string
	LockedUntil  time.Time
	OccurredAt   time.Time
}

// TokensRevokedEvent is published when a logout revokes a credential's refresh tokens.
type TokensRevokedEvent struct {
	EventID       string
	CredentialID  string
	TokensRevoked int
	OccurredAt    time.Time
}
