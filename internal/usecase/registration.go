package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/infra/security"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidRole indicates the requested role is outside the known set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrPasswordPolicyViolation indicates the password does not satisfy the policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
	// ErrAccountNotFound indicates the credential does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNotPending indicates activation was requested for an account
	// that is not awaiting verification.
	ErrAccountNotPending = errors.New("account is not pending verification")
)

// RegistrationInput carries the fields required to provision an account.
type RegistrationInput struct {
	Email     string
	Password  string
	Role      domain.Role
	FirstName string
	LastName  string
	Specialty string
}

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	credentials       port.CredentialRepository
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(credentials port.CredentialRepository, events port.EventPublisher, validator *security.PasswordValidator, logger *zap.Logger) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		credentials:       credentials,
		events:            events,
		passwordValidator: validator,
		logger:            logger,
	}
}

// Register creates a credential with status PENDING_VERIFICATION and its
// role profile stub in one transaction. Only PATIENT and DOCTOR roles
// provision a profile; the other roles get a bare credential.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (domain.Credential, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return domain.Credential{}, fmt.Errorf("email is required")
	}
	if !input.Role.Valid() {
		return domain.Credential{}, ErrInvalidRole
	}
	if err := s.passwordValidator.Validate(input.Password); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}
	if score := security.PasswordStrengthScore(input.Password, email); score < 2 {
		s.logger.Warn("accepted password with low strength score",
			zap.Int("zxcvbn_score", score),
		)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	cred := domain.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         input.Role,
		Status:       domain.AccountStatusPendingVerification,
		CreatedAt:    now,
	}

	var patient *domain.PatientProfile
	var practitioner *domain.PractitionerProfile

	switch input.Role {
	case domain.RolePatient:
		patient = &domain.PatientProfile{
			ID:           uuid.NewString(),
			CredentialID: cred.ID,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			CreatedAt:    now,
		}
	case domain.RoleDoctor:
		practitioner = &domain.PractitionerProfile{
			ID:           uuid.NewString(),
			CredentialID: cred.ID,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			Specialty:    strings.TrimSpace(input.Specialty),
			CreatedAt:    now,
		}
	}

	if err := s.credentials.CreateWithProfile(ctx, cred, patient, practitioner); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Credential{}, ErrEmailTaken
		}
		return domain.Credential{}, fmt.Errorf("create credential: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishUserRegistered(ctx, domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			CredentialID: cred.ID,
			Email:        cred.Email,
			Role:         string(cred.Role),
			Status:       string(cred.Status),
			RegisteredAt: now,
		}); err != nil {
			s.logger.Warn("publish user registered event", zap.Error(err))
		}
	}

	cred.PasswordHash = ""

	return cred, nil
}

// Activate completes onboarding for a credential by moving it from
// PENDING_VERIFICATION to ACTIVE. Accounts in any other state are left
// untouched.
func (s *RegistrationService) Activate(ctx context.Context, credentialID string) error {
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" {
		return fmt.Errorf("credential id is required")
	}

	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup credential: %w", err)
	}
	if cred.Status != domain.AccountStatusPendingVerification {
		return ErrAccountNotPending
	}

	if err := s.credentials.UpdateStatus(ctx, credentialID, domain.AccountStatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update account status: %w", err)
	}

	s.logger.Info("account activated", zap.String("credential_id", credentialID))

	return nil
}
