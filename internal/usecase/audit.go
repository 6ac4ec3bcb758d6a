package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
)

const (
	defaultAuditQueueSize = 1024
	auditInsertTimeout    = 5 * time.Second
	defaultAuditListLimit = 50
	maxAuditListLimit     = 500
)

// AuditRecorder persists audit entries asynchronously. Record hands the
// entry to a background worker through a bounded queue and returns
// immediately; a full queue drops the entry with a warning rather than
// blocking the calling request.
type AuditRecorder struct {
	repo    port.AuditRepository
	logger  *zap.Logger
	queue   chan domain.AuditEntry
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// NewAuditRecorder starts the recorder's background worker.
func NewAuditRecorder(repo port.AuditRepository, queueSize int, logger *zap.Logger) *AuditRecorder {
	if queueSize <= 0 {
		queueSize = defaultAuditQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AuditRecorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan domain.AuditEntry, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AuditRecorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), auditInsertTimeout)
		if err := r.repo.Insert(ctx, entry); err != nil {
			r.logger.Error("audit insert failed",
				zap.String("action", string(entry.Action)),
				zap.String("resource_type", entry.ResourceType),
				zap.Error(err))
		}
		cancel()
	}
}

// Record enqueues an entry for persistence. It never blocks and never
// returns an error: audit failures must not fail the operation being
// audited.
func (r *AuditRecorder) Record(entry domain.AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		r.logger.Warn("audit recorder closed, entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType))
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType))
	}
}

// Close stops accepting entries and waits for the worker to drain the queue.
func (r *AuditRecorder) Close() {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.closeMu.Unlock()
	<-r.done
}

// RequestMeta carries the HTTP context attached to every entry.
type RequestMeta struct {
	IPAddress string
	Endpoint  string
	Method    string
}

// LogLogin records an authentication attempt. actorID is nil when the
// email did not resolve to a credential.
func (r *AuditRecorder) LogLogin(actorID *string, success bool, errorText string, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      actorID,
		Action:       domain.AuditActionLogin,
		ResourceType: "auth",
		Success:      success,
		ErrorText:    optionalText(errorText),
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// LogLogout records a session termination.
func (r *AuditRecorder) LogLogout(actorID string, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      &actorID,
		Action:       domain.AuditActionLogout,
		ResourceType: "auth",
		Success:      true,
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// LogDataAccess records a read, flagged as PHI access when patientID is set.
// Failed reads of PHI resources still carry the flag; the attempt itself is
// the auditable fact.
func (r *AuditRecorder) LogDataAccess(actorID, resourceType, resourceID, patientID string, success bool, errorText string, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      optionalText(actorID),
		Action:       domain.AuditActionRead,
		ResourceType: resourceType,
		ResourceID:   optionalText(resourceID),
		PHIAccessed:  patientID != "",
		PatientID:    optionalText(patientID),
		Success:      success,
		ErrorText:    optionalText(errorText),
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// LogDataCreation records a create with the new state serialized as JSON.
func (r *AuditRecorder) LogDataCreation(actorID, resourceType, resourceID, patientID string, newValues any, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      optionalText(actorID),
		Action:       domain.AuditActionCreate,
		ResourceType: resourceType,
		ResourceID:   optionalText(resourceID),
		PHIAccessed:  patientID != "",
		PatientID:    optionalText(patientID),
		NewValues:    marshalValues(newValues, r.logger),
		Success:      true,
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// LogDataUpdate records an update with before and after state.
func (r *AuditRecorder) LogDataUpdate(actorID, resourceType, resourceID, patientID string, oldValues, newValues any, success bool, errorText string, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      optionalText(actorID),
		Action:       domain.AuditActionUpdate,
		ResourceType: resourceType,
		ResourceID:   optionalText(resourceID),
		PHIAccessed:  patientID != "",
		PatientID:    optionalText(patientID),
		OldValues:    marshalValues(oldValues, r.logger),
		NewValues:    marshalValues(newValues, r.logger),
		Success:      success,
		ErrorText:    optionalText(errorText),
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// LogDataDeletion records a delete with the removed state.
func (r *AuditRecorder) LogDataDeletion(actorID, resourceType, resourceID, patientID string, oldValues any, meta RequestMeta) {
	r.Record(domain.AuditEntry{
		ActorID:      optionalText(actorID),
		Action:       domain.AuditActionDelete,
		ResourceType: resourceType,
		ResourceID:   optionalText(resourceID),
		PHIAccessed:  patientID != "",
		PatientID:    optionalText(patientID),
		OldValues:    marshalValues(oldValues, r.logger),
		Success:      true,
		IPAddress:    meta.IPAddress,
		Endpoint:     meta.Endpoint,
		HTTPMethod:   meta.Method,
	})
}

// ListByPatient returns the PHI access history for a patient, newest first.
func (r *AuditRecorder) ListByPatient(ctx context.Context, patientID string, limit int) ([]domain.AuditEntry, error) {
	return r.repo.ListByPatient(ctx, patientID, clampLimit(limit))
}

// ListByActor returns all actions recorded for a user, newest first.
func (r *AuditRecorder) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	return r.repo.ListByActor(ctx, actorID, clampLimit(limit))
}

// PurgeExpired deletes entries older than the retention window.
func (r *AuditRecorder) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	deleted, err := r.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.logger.Info("audit retention sweep completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultAuditListLimit
	case limit > maxAuditListLimit:
		return maxAuditListLimit
	default:
		return limit
	}
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func marshalValues(v any, logger *zap.Logger) *string {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn("audit values not serializable", zap.Error(err))
		return nil
	}
	s := string(raw)
	return &s
}
