package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

// CredentialRepository implements port.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
}

// NewCredentialRepository constructs a repository backed by any pool that
// satisfies pgPool (pgxpool or pgxmock).
func NewCredentialRepository(pool pgPool) *CredentialRepository {
	return &CredentialRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateWithProfile inserts the credential and its role profile stub within
// one transaction so neither is ever observable without the other.
func (r *CredentialRepository) CreateWithProfile(ctx context.Context, cred domain.Credential, patient *domain.PatientProfile, practitioner *domain.PractitionerProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmt, args, err := r.builder.Insert("meditech.credentials").
		Columns(
			"id",
			"email",
			"password_hash",
			"role",
			"status",
			"failed_login_attempts",
			"locked_until",
			"last_login",
			"created_at",
		).
		Values(
			cred.ID,
			cred.Email,
			cred.PasswordHash,
			cred.Role,
			cred.Status,
			cred.FailedLoginAttempts,
			cred.LockedUntil,
			cred.LastLogin,
			cred.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert credential sql: %w", err)
	}

	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}

	if patient != nil {
		stmt, args, err := r.builder.Insert("meditech.patient_profiles").
			Columns("id", "credential_id", "first_name", "last_name", "created_at").
			Values(patient.ID, patient.CredentialID, patient.FirstName, patient.LastName, patient.CreatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert patient profile sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert patient profile: %w", err)
		}
	}

	if practitioner != nil {
		stmt, args, err := r.builder.Insert("meditech.practitioner_profiles").
			Columns("id", "credential_id", "first_name", "last_name", "specialty", "created_at").
			Values(practitioner.ID, practitioner.CredentialID, practitioner.FirstName, practitioner.LastName, practitioner.Specialty, practitioner.CreatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert practitioner profile sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert practitioner profile: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}

	return nil
}

// GetByEmail retrieves a credential by its unique email.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// GetByID retrieves a credential by identifier.
func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *CredentialRepository) getBy(ctx context.Context, pred squirrel.Eq) (*domain.Credential, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"email",
		"password_hash",
		"role",
		"status",
		"failed_login_attempts",
		"locked_until",
		"last_login",
		"created_at",
	).
		From("meditech.credentials").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select credential sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var (
		cred        domain.Credential
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)

	if err := row.Scan(
		&cred.ID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.Role,
		&cred.Status,
		&cred.FailedLoginAttempts,
		&lockedUntil,
		&lastLogin,
		&cred.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}

	cred.LockedUntil = nullableTimePtr(lockedUntil)
	cred.LastLogin = nullableTimePtr(lastLogin)

	return &cred, nil
}

// RegisterFailedAttempt increments the failed-login counter and arms the
// lockout when the threshold is reached, as a single atomic update so
// concurrent attempts on the same credential never lose increments.
func (r *CredentialRepository) RegisterFailedAttempt(ctx context.Context, id string, maxAttempts int, lockout time.Duration) (int, *time.Time, error) {
	const stmt = `
		UPDATE meditech.credentials
		   SET failed_login_attempts = failed_login_attempts + 1,
		       locked_until = CASE
		           WHEN failed_login_attempts + 1 >= $2 THEN now() + make_interval(secs => $3)
		           ELSE locked_until
		       END
		 WHERE id = $1
		 RETURNING failed_login_attempts, locked_until
	`

	var (
		attempts    int
		lockedUntil sql.NullTime
	)

	if err := r.pool.QueryRow(ctx, stmt, id, maxAttempts, lockout.Seconds()).Scan(&attempts, &lockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return 0, nil, repository.ErrNotFound
		}
		return 0, nil, fmt.Errorf("register failed attempt: %w", err)
	}

	return attempts, nullableTimePtr(lockedUntil), nil
}

// ResetLockout clears the failed-attempt counter and lockout expiry and
// stamps the last successful login.
func (r *CredentialRepository) ResetLockout(ctx context.Context, id string, lastLogin time.Time) error {
	stmt, args, err := r.builder.Update("meditech.credentials").
		Set("failed_login_attempts", 0).
		Set("locked_until", nil).
		Set("last_login", lastLogin.UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout sql: %w", err)
	}

	ct, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateStatus transitions the account status. Credentials are never deleted;
// retirement happens here.
func (r *CredentialRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	stmt, args, err := r.builder.Update("meditech.credentials").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status sql: %w", err)
	}

	ct, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.CredentialRepository = (*CredentialRepository)(nil)
