package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
)

// AuditRepository implements port.AuditRepository using PostgreSQL.
type AuditRepository struct {
	pool    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewAuditRepository(pool pgExecutor) *AuditRepository {
	return &AuditRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends an audit entry. Entries are never updated afterwards.
func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	stmt, args, err := r.builder.Insert("meditech.audit_logs").
		Columns(
			"id",
			"actor_id",
			"action",
			"resource_type",
			"resource_id",
			"phi_accessed",
			"patient_id",
			"ip_address",
			"endpoint",
			"http_method",
			"old_values",
			"new_values",
			"success",
			"error_text",
			"created_at",
		).
		Values(
			entry.ID,
			optionalString(entry.ActorID),
			entry.Action,
			entry.ResourceType,
			optionalString(entry.ResourceID),
			entry.PHIAccessed,
			optionalString(entry.PatientID),
			entry.IPAddress,
			entry.Endpoint,
			entry.HTTPMethod,
			optionalString(entry.OldValues),
			optionalString(entry.NewValues),
			entry.Success,
			optionalString(entry.ErrorText),
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByPatient returns PHI-flagged entries for the subject patient, newest first.
func (r *AuditRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]domain.AuditEntry, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"patient_id": patientID},
		squirrel.Eq{"phi_accessed": true},
	}, limit)
}

// ListByActor returns all entries recorded for the acting user, newest first.
func (r *AuditRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	return r.list(ctx, squirrel.Eq{"actor_id": actorID}, limit)
}

func (r *AuditRepository) list(ctx context.Context, pred squirrel.Sqlizer, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	stmt, args, err := r.builder.Select(
		"id",
		"actor_id",
		"action",
		"resource_type",
		"resource_id",
		"phi_accessed",
		"patient_id",
		"ip_address",
		"endpoint",
		"http_method",
		"old_values",
		"new_values",
		"success",
		"error_text",
		"created_at",
	).
		From("meditech.audit_logs").
		Where(pred).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select audit entries sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry      domain.AuditEntry
			actorID    sql.NullString
			resourceID sql.NullString
			patientID  sql.NullString
			oldValues  sql.NullString
			newValues  sql.NullString
			errorText  sql.NullString
		)

		if err := rows.Scan(
			&entry.ID,
			&actorID,
			&entry.Action,
			&entry.ResourceType,
			&resourceID,
			&entry.PHIAccessed,
			&patientID,
			&entry.IPAddress,
			&entry.Endpoint,
			&entry.HTTPMethod,
			&oldValues,
			&newValues,
			&entry.Success,
			&errorText,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.ActorID = nullableStringPtr(actorID)
		entry.ResourceID = nullableStringPtr(resourceID)
		entry.PatientID = nullableStringPtr(patientID)
		entry.OldValues = nullableStringPtr(oldValues)
		entry.NewValues = nullableStringPtr(newValues)
		entry.ErrorText = nullableStringPtr(errorText)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan removes entries created before the cutoff. This retention
// sweep is the only path allowed to delete audit entries.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	stmt, args, err := r.builder.Delete("meditech.audit_logs").
		Where(squirrel.Lt{"created_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete audit entries sql: %w", err)
	}

	ct, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired audit entries: %w", err)
	}

	return ct.RowsAffected(), nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
