package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/infra/crypto"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

// ErrRecordNotFound indicates the patient has no demographic record.
var ErrRecordNotFound = errors.New("patient record not found")

// PatientRecordService reads and writes patient demographic records,
// encrypting the PHI subset of fields at rest and auditing every access.
type PatientRecordService struct {
	profiles port.ProfileRepository
	codec    *crypto.Codec
	audit    *AuditRecorder
	logger   *zap.Logger
}

// NewPatientRecordService constructs the record service.
func NewPatientRecordService(profiles port.ProfileRepository, codec *crypto.Codec, audit *AuditRecorder, logger *zap.Logger) *PatientRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientRecordService{
		profiles: profiles,
		codec:    codec,
		audit:    audit,
		logger:   logger,
	}
}

// Get returns the decrypted demographic record for a patient. Fields that
// fail decryption come back masked rather than failing the whole read. Every
// call produces exactly one audit entry, success or failure.
func (s *PatientRecordService) Get(ctx context.Context, actorID, patientID string, meta RequestMeta) (*domain.PatientRecord, error) {
	record, err := s.profiles.GetPatientRecord(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrRecordNotFound
		} else {
			err = fmt.Errorf("load patient record: %w", err)
		}
		s.auditRead(actorID, patientID, false, err.Error(), meta)
		return nil, err
	}

	s.codec.DecryptFields(record.Demographics, domain.PHIFields)
	s.auditRead(actorID, patientID, true, "", meta)

	return record, nil
}

// Update replaces the demographic record, encrypting PHI fields before they
// reach storage. The audit entry carries the before and after state with
// PHI fields masked. Every call produces exactly one audit entry, success
// or failure.
func (s *PatientRecordService) Update(ctx context.Context, actorID, patientID string, demographics map[string]any, meta RequestMeta) (*domain.PatientRecord, error) {
	newMasked := s.maskPHI(demographics)

	previous, err := s.profiles.GetPatientRecord(ctx, patientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		err = fmt.Errorf("load patient record: %w", err)
		s.auditUpdate(actorID, patientID, nil, newMasked, false, err.Error(), meta)
		return nil, err
	}

	var oldMasked map[string]any
	if previous != nil {
		s.codec.DecryptFields(previous.Demographics, domain.PHIFields)
		oldMasked = s.maskPHI(previous.Demographics)
	}

	stored := make(map[string]any, len(demographics))
	maps.Copy(stored, demographics)
	if err := s.codec.EncryptFields(stored, domain.PHIFields); err != nil {
		err = fmt.Errorf("encrypt patient record: %w", err)
		s.auditUpdate(actorID, patientID, oldMasked, newMasked, false, err.Error(), meta)
		return nil, err
	}

	record := domain.PatientRecord{
		PatientID:    patientID,
		Demographics: stored,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.profiles.UpsertPatientRecord(ctx, record); err != nil {
		err = fmt.Errorf("store patient record: %w", err)
		s.auditUpdate(actorID, patientID, oldMasked, newMasked, false, err.Error(), meta)
		return nil, err
	}

	s.auditUpdate(actorID, patientID, oldMasked, newMasked, true, "", meta)

	return &domain.PatientRecord{
		PatientID:    patientID,
		Demographics: demographics,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}

func (s *PatientRecordService) auditRead(actorID, patientID string, success bool, errorText string, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	s.audit.LogDataAccess(actorID, "patient_record", patientID, patientID, success, errorText, meta)
}

func (s *PatientRecordService) auditUpdate(actorID, patientID string, oldMasked, newMasked map[string]any, success bool, errorText string, meta RequestMeta) {
	if s.audit == nil {
		return
	}
	s.audit.LogDataUpdate(actorID, "patient_record", patientID, patientID, oldMasked, newMasked, success, errorText, meta)
}

// maskPHI copies the document with PHI field values masked so audit rows
// never hold plaintext identifiers.
func (s *PatientRecordService) maskPHI(demographics map[string]any) map[string]any {
	if demographics == nil {
		return nil
	}
	masked := make(map[string]any, len(demographics))
	maps.Copy(masked, demographics)
	for _, field := range domain.PHIFields {
		if raw, ok := masked[field]; ok {
			if str, ok := raw.(string); ok {
				masked[field] = s.codec.Mask(str, 2)
			}
		}
	}
	return masked
}
