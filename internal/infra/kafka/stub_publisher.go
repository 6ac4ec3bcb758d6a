package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subject string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("subject", subject),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"credential_id": event.CredentialID,
		"email":         event.Email,
		"role":          event.Role,
		"status":        event.Status,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("user.registered", event.CredentialID, event.RegisteredAt, payload)
	return nil
}

// PublishLoginFailed logs auth.login_failed events.
func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	subject := ""
	if event.CredentialID != nil {
		subject = *event.CredentialID
	}
	payload := map[string]any{
		"credential_id":   event.CredentialID,
		"email":           event.Email,
		"failed_attempts": event.FailedAttempts,
		"ip_address":      event.IPAddress,
		"occurred_at":     event.OccurredAt,
	}
	p.logEvent("auth.login_failed", subject, event.OccurredAt, payload)
	return nil
}

// PublishAccountLocked logs auth.account_locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	payload := map[string]any{
		"credential_id": event.CredentialID,
		"email":         event.Email,
		"locked_until":  event.LockedUntil,
		"occurred_at":   event.OccurredAt,
	}
	p.logEvent("auth.account_locked", event.CredentialID, event.OccurredAt, payload)
	return nil
}

// PublishTokensRevoked logs auth.tokens_revoked events.
func (p *StubPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	payload := map[string]any{
		"credential_id":  event.CredentialID,
		"tokens_revoked": event.TokensRevoked,
		"occurred_at":    event.OccurredAt,
	}
	p.logEvent("auth.tokens_revoked", event.CredentialID, event.OccurredAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
