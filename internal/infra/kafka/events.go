package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Subject   string           `json:"subject,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subject string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Subject:   subject,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		CredentialID string    `json:"credential_id"`
		Email        string    `json:"email"`
		Role         string    `json:"role"`
		Status       string    `json:"status"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		CredentialID: event.CredentialID,
		Email:        event.Email,
		Role:         event.Role,
		Status:       event.Status,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "user.registered", event.CredentialID, event.RegisteredAt, payload)
}

// PublishLoginFailed publishes auth.login_failed events.
func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := struct {
		CredentialID   *string   `json:"credential_id,omitempty"`
		Email          string    `json:"email"`
		FailedAttempts int       `json:"failed_attempts"`
		IPAddress      *string   `json:"ip_address,omitempty"`
		OccurredAt     time.Time `json:"occurred_at"`
	}{
		CredentialID:   event.CredentialID,
		Email:          event.Email,
		FailedAttempts: event.FailedAttempts,
		IPAddress:      event.IPAddress,
		OccurredAt:     event.OccurredAt.UTC(),
	}

	subject := ""
	if event.CredentialID != nil {
		subject = *event.CredentialID
	}

	return p.publish(ctx, event.EventID, "auth.login_failed", subject, event.OccurredAt, payload)
}

// PublishAccountLocked publishes auth.account_locked events.
func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		CredentialID string    `json:"credential_id"`
		Email        string    `json:"email"`
		LockedUntil  time.Time `json:"locked_until"`
		OccurredAt   time.Time `json:"occurred_at"`
	}{
		CredentialID: event.CredentialID,
		Email:        event.Email,
		LockedUntil:  event.LockedUntil.UTC(),
		OccurredAt:   event.OccurredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.account_locked", event.CredentialID, event.OccurredAt, payload)
}

// PublishTokensRevoked publishes auth.tokens_revoked events.
func (p *EventPublisher) PublishTokensRevoked(ctx context.Context, event domain.TokensRevokedEvent) error {
	payload := struct {
		CredentialID  string    `json:"credential_id"`
		TokensRevoked int       `json:"tokens_revoked"`
		OccurredAt    time.Time `json:"occurred_at"`
	}{
		CredentialID:  event.CredentialID,
		TokensRevoked: event.TokensRevoked,
		OccurredAt:    event.OccurredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.tokens_revoked", event.CredentialID, event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
