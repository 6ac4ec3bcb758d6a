package port

import (
	"context"
	"time"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// CredentialRepository persists account credentials.
type CredentialRepository interface {
	// CreateWithProfile inserts the credential and its role profile stub (at
	// most one of patient/practitioner) atomically. A credential without its
	// profile, or vice versa, must never be observable.
	CreateWithProfile(ctx context.Context, cred domain.Credential, patient *domain.PatientProfile, practitioner *domain.PractitionerProfile) error
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	// RegisterFailedAttempt increments the failed-login counter and arms the
	// lockout when the threshold is reached, as a single atomic update. It
	// returns the post-update counter and lockout expiry so concurrent
	// attempts never lose increments.
	RegisterFailedAttempt(ctx context.Context, id string, maxAttempts int, lockout time.Duration) (int, *time.Time, error)
	// ResetLockout clears the failed-attempt counter and lockout expiry and
	// stamps the last successful login.
	ResetLockout(ctx context.Context, id string, lastLogin time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
}
