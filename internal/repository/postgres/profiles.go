package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(pool pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindProfileIDs returns the patient and practitioner profile ids linked to
// the credential; either may be nil.
func (r *ProfileRepository) FindProfileIDs(ctx context.Context, credentialID string) (*string, *string, error) {
	patientID, err := r.findProfileID(ctx, "meditech.patient_profiles", credentialID)
	if err != nil {
		return nil, nil, err
	}

	practitionerID, err := r.findProfileID(ctx, "meditech.practitioner_profiles", credentialID)
	if err != nil {
		return nil, nil, err
	}

	return patientID, practitionerID, nil
}

func (r *ProfileRepository) findProfileID(ctx context.Context, table, credentialID string) (*string, error) {
	stmt, args, err := r.builder.Select("id").
		From(table).
		Where(squirrel.Eq{"credential_id": credentialID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile id sql: %w", err)
	}

	var id string
	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile id: %w", err)
	}

	return &id, nil
}

// GetPatientRecord fetches a patient's demographic document.
func (r *ProfileRepository) GetPatientRecord(ctx context.Context, patientID string) (*domain.PatientRecord, error) {
	stmt, args, err := r.builder.Select("patient_id", "demographics", "updated_at").
		From("meditech.patient_records").
		Where(squirrel.Eq{"patient_id": patientID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select patient record sql: %w", err)
	}

	var (
		record  domain.PatientRecord
		payload []byte
	)

	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(&record.PatientID, &payload, &record.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan patient record: %w", err)
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &record.Demographics); err != nil {
			return nil, fmt.Errorf("unmarshal demographics: %w", err)
		}
	}

	return &record, nil
}

// UpsertPatientRecord stores a patient's demographic document.
func (r *ProfileRepository) UpsertPatientRecord(ctx context.Context, record domain.PatientRecord) error {
	payload, err := json.Marshal(record.Demographics)
	if err != nil {
		return fmt.Errorf("marshal demographics: %w", err)
	}

	stmt, args, err := r.builder.Insert("meditech.patient_records").
		Columns("patient_id", "demographics", "updated_at").
		Values(record.PatientID, payload, record.UpdatedAt).
		Suffix("ON CONFLICT (patient_id) DO UPDATE SET demographics = EXCLUDED.demographics, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert patient record sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert patient record: %w", err)
	}

	return nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
