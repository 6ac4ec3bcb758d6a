package port

import (
	"context"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// TokenRepository persists refresh token records.
type TokenRepository interface {
	Create(ctx context.Context, token domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	// Rotate inserts the successor record and marks the record identified by
	// oldHash revoked with its successor pointer set, in one transaction. The
	// revocation is guarded by a not-already-revoked check; when a concurrent
	// rotation won the race the transaction rolls back and
	// repository.ErrNotFound is returned.
	Rotate(ctx context.Context, oldHash string, successor domain.RefreshToken) error
	// RevokeAllForCredential marks every non-revoked refresh token for the
	// credential revoked and returns how many rows were touched.
	RevokeAllForCredential(ctx context.Context, credentialID string) (int, error)
}
