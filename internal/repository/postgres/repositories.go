package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Credentials *CredentialRepository
	Tokens      *TokenRepository
	Audit       *AuditRepository
	Profiles    *ProfileRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Credentials: NewCredentialRepository(pool),
		Tokens:      NewTokenRepository(pool),
		Audit:       NewAuditRepository(pool),
		Profiles:    NewProfileRepository(pool),
	}
}
