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
	appLogger "github.com/mkmahmud/meditech-backend/internal/infra/logger"
	"github.com/mkmahmud/meditech-backend/internal/infra/security"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown identities and wrong
	// passwords; the wording stays generic to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountSuspended indicates the account was suspended by an administrator.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountInactive indicates the account was deactivated.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountPending indicates the account requires verification before login.
	ErrAccountPending = errors.New("account pending verification")
)

// LockedError is returned while the lockout window is open. RemainingMinutes
// is rounded up so "0 minutes remaining" is never displayed for a live lock.
type LockedError struct {
	RemainingMinutes int
}

// Error implements error.
func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes)
}

// LoginResult bundles the authenticated principal and its fresh token pair.
type LoginResult struct {
	Principal domain.Principal
	Tokens    domain.TokenPair
}

// Authenticator verifies identities and manages brute-force lockout state.
type Authenticator struct {
	credentials     port.CredentialRepository
	profiles        port.ProfileRepository
	tokens          *TokenService
	events          port.EventPublisher
	logger          *zap.Logger
	maxFailedLogins int
	lockoutDuration time.Duration
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(
	credentials port.CredentialRepository,
	profiles port.ProfileRepository,
	tokens *TokenService,
	events port.EventPublisher,
	logger *zap.Logger,
	maxFailedLogins int,
	lockoutDuration time.Duration,
) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFailedLogins <= 0 {
		maxFailedLogins = 5
	}
	if lockoutDuration <= 0 {
		lockoutDuration = 30 * time.Minute
	}

	return &Authenticator{
		credentials:     credentials,
		profiles:        profiles,
		tokens:          tokens,
		events:          events,
		logger:          logger,
		maxFailedLogins: maxFailedLogins,
		lockoutDuration: lockoutDuration,
	}
}

// Authenticate validates the presented secret against the stored credential.
// On success the failed-attempt counter resets, the last login is stamped,
// and a fresh token pair is issued. The caller is responsible for emitting
// the LOGIN audit entry.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	cred, err := a.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup credential: %w", err)
	}

	switch cred.Status {
	case domain.AccountStatusSuspended:
		return LoginResult{}, ErrAccountSuspended
	case domain.AccountStatusInactive:
		return LoginResult{}, ErrAccountInactive
	}

	now := time.Now().UTC()
	if cred.Locked(now) {
		return LoginResult{}, &LockedError{RemainingMinutes: remainingMinutes(*cred.LockedUntil, now)}
	}

	ok, err := security.VerifyPassword(password, cred.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		a.registerFailure(ctx, cred)
		return LoginResult{}, ErrInvalidCredentials
	}

	// A verified password always clears the counter, even when the pending
	// gate still blocks the login below.
	if err := a.credentials.ResetLockout(ctx, cred.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("reset lockout state: %w", err)
	}

	if cred.Status == domain.AccountStatusPendingVerification {
		return LoginResult{}, ErrAccountPending
	}

	pair, err := a.tokens.Issue(ctx, *cred)
	if err != nil {
		return LoginResult{}, err
	}

	principal := domain.Principal{
		CredentialID: cred.ID,
		Email:        cred.Email,
		Role:         cred.Role,
	}
	if a.profiles != nil {
		patientID, practitionerID, err := a.profiles.FindProfileIDs(ctx, cred.ID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("resolve role profiles: %w", err)
		}
		principal.PatientProfileID = patientID
		principal.PractitionerProfileID = practitionerID
	}

	return LoginResult{Principal: principal, Tokens: pair}, nil
}

// registerFailure counts the failed attempt via an atomic conditional update
// so concurrent attempts never lose increments, and publishes the
// corresponding security events best-effort.
func (a *Authenticator) registerFailure(ctx context.Context, cred *domain.Credential) {
	attempts, lockedUntil, err := a.credentials.RegisterFailedAttempt(ctx, cred.ID, a.maxFailedLogins, a.lockoutDuration)
	if err != nil {
		a.logger.Error("failed to register login failure",
			zap.String("credential_id", cred.ID),
			zap.Error(err),
		)
		return
	}

	if attempts == a.maxFailedLogins && lockedUntil != nil {
		a.logger.Warn("account locked after repeated login failures",
			zap.String("credential_id", cred.ID),
			zap.String("email", appLogger.MaskEmail(cred.Email)),
			zap.Time("locked_until", *lockedUntil),
		)
	}

	if a.events == nil {
		return
	}

	credID := cred.ID
	if err := a.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		EventID:        uuid.NewString(),
		CredentialID:   &credID,
		Email:          cred.Email,
		FailedAttempts: attempts,
		OccurredAt:     time.Now().UTC(),
	}); err != nil {
		a.logger.Warn("publish login failed event", zap.Error(err))
	}

	if attempts == a.maxFailedLogins && lockedUntil != nil {
		if err := a.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
			EventID:      uuid.NewString(),
			CredentialID: cred.ID,
			Email:        cred.Email,
			LockedUntil:  *lockedUntil,
			OccurredAt:   time.Now().UTC(),
		}); err != nil {
			a.logger.Warn("publish account locked event", zap.Error(err))
		}
	}
}

// remainingMinutes computes ceil((lockedUntil - now) / 1 minute).
func remainingMinutes(lockedUntil, now time.Time) int {
	remaining := lockedUntil.Sub(now)
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
