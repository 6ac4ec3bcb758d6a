package port

import (
	"context"
	"time"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// AuditRepository persists append-only audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
	// ListByPatient returns PHI-flagged entries for the subject patient,
	// newest first, capped by limit.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]domain.AuditEntry, error)
	// ListByActor returns all entries recorded for the acting user, newest
	// first, capped by limit.
	ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error)
	// DeleteOlderThan removes entries created before the cutoff. It is the
	// only operation permitted to delete audit entries.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
