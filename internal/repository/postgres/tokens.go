package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/core/port"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new token repository.
func NewTokenRepository(pool pgPool) *TokenRepository {
	return &TokenRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a refresh token record.
func (r *TokenRepository) Create(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.insertStatement(token)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

func (r *TokenRepository) insertStatement(token domain.RefreshToken) (string, []any, error) {
	stmt, args, err := r.builder.Insert("meditech.refresh_tokens").
		Columns(
			"id",
			"credential_id",
			"token_hash",
			"created_at",
			"expires_at",
			"revoked_at",
			"replaced_by",
		).
		Values(
			token.ID,
			token.CredentialID,
			token.TokenHash,
			token.CreatedAt,
			token.ExpiresAt,
			token.RevokedAt,
			optionalString(token.ReplacedBy),
		).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert refresh token sql: %w", err)
	}
	return stmt, args, nil
}

// GetByHash retrieves a refresh token record by its hashed value.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.Select(
		"id",
		"credential_id",
		"token_hash",
		"created_at",
		"expires_at",
		"revoked_at",
		"replaced_by",
	).
		From("meditech.refresh_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	row := r.pool.QueryRow(ctx, stmt, args...)

	var (
		token      domain.RefreshToken
		revokedAt  sql.NullTime
		replacedBy sql.NullString
	)

	if err := row.Scan(
		&token.ID,
		&token.CredentialID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&revokedAt,
		&replacedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	token.RevokedAt = nullableTimePtr(revokedAt)
	token.ReplacedBy = nullableStringPtr(replacedBy)

	return &token, nil
}

// Rotate inserts the successor record and marks the presented token revoked
// with its successor pointer set, in one transaction. The conditional update
// ensures that when two rotations race, only the first writer succeeds; the
// loser observes zero affected rows and the transaction rolls back.
func (r *TokenRepository) Rotate(ctx context.Context, oldHash string, successor domain.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmt, args, err := r.insertStatement(successor)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert successor token: %w", err)
	}

	const revokeStmt = `
		UPDATE meditech.refresh_tokens
		   SET revoked_at = now(), replaced_by = $1
		 WHERE token_hash = $2
		   AND revoked_at IS NULL
	`

	ct, err := tx.Exec(ctx, revokeStmt, successor.ID, oldHash)
	if err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation tx: %w", err)
	}

	return nil
}

// RevokeAllForCredential marks every non-revoked refresh token for the
// credential revoked and reports how many rows were touched.
func (r *TokenRepository) RevokeAllForCredential(ctx context.Context, credentialID string) (int, error) {
	stmt, args, err := r.builder.Update("meditech.refresh_tokens").
		Set("revoked_at", time.Now().UTC()).
		Where(squirrel.Eq{"credential_id": credentialID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke refresh tokens sql: %w", err)
	}

	ct, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
