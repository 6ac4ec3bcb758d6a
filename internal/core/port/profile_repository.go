package port

import (
	"context"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// ProfileRepository resolves role profiles and patient demographic records.
type ProfileRepository interface {
	// FindProfileIDs returns the patient and practitioner profile ids linked
	// to the credential; either may be nil.
	FindProfileIDs(ctx context.Context, credentialID string) (patientID *string, practitionerID *string, err error)
	GetPatientRecord(ctx context.Context, patientID string) (*domain.PatientRecord, error)
	UpsertPatientRecord(ctx context.Context, record domain.PatientRecord) error
}
