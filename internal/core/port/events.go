package port

import (
	"context"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// EventPublisher emits security events to downstream consumers. Publishing is
// best-effort from the caller's perspective; failures are logged, never
// propagated into business flows.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error
}
