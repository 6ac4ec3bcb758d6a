package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

func newRefreshToken(id, hash string) domain.RefreshToken {
	now := time.Now().UTC()
	return domain.RefreshToken{
		ID:           id,
		CredentialID: "cred-1",
		TokenHash:    hash,
		CreatedAt:    now,
		ExpiresAt:    now.Add(7 * 24 * time.Hour),
	}
}

func TestTokenRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	token := newRefreshToken("token-1", "hash-1")

	mock.ExpectExec(`INSERT INTO meditech\.refresh_tokens`).
		WithArgs(
			token.ID,
			token.CredentialID,
			token.TokenHash,
			token.CreatedAt,
			token.ExpiresAt,
			token.RevokedAt,
			nil,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_GetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	createdAt := time.Now().UTC()
	expiresAt := createdAt.Add(7 * 24 * time.Hour)

	rows := pgxmock.NewRows([]string{
		"id", "credential_id", "token_hash", "created_at", "expires_at", "revoked_at", "replaced_by",
	}).AddRow(
		"token-1", "cred-1", "hash-1", createdAt, expiresAt, nil, nil,
	)

	mock.ExpectQuery(`SELECT .*FROM meditech\.refresh_tokens`).
		WithArgs("hash-1").
		WillReturnRows(rows)

	token, err := repo.GetByHash(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("GetByHash returned error: %v", err)
	}
	if token.ID != "token-1" || token.CredentialID != "cred-1" {
		t.Fatalf("unexpected token %+v", token)
	}
	if token.RevokedAt != nil || token.ReplacedBy != nil {
		t.Fatal("expected live token without successor")
	}
}

func TestTokenRepository_GetByHashNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM meditech\.refresh_tokens`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "credential_id", "token_hash", "created_at", "expires_at", "revoked_at", "replaced_by",
		}))

	if _, err := repo.GetByHash(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenRepository_Rotate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	successor := newRefreshToken("token-2", "hash-2")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO meditech\.refresh_tokens`).
		WithArgs(
			successor.ID,
			successor.CredentialID,
			successor.TokenHash,
			successor.CreatedAt,
			successor.ExpiresAt,
			successor.RevokedAt,
			nil,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE meditech\.refresh_tokens`).
		WithArgs(successor.ID, "hash-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	if err := repo.Rotate(context.Background(), "hash-1", successor); err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_RotateAlreadyRevoked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)
	successor := newRefreshToken("token-2", "hash-2")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO meditech\.refresh_tokens`).
		WithArgs(
			successor.ID,
			successor.CredentialID,
			successor.TokenHash,
			successor.CreatedAt,
			successor.ExpiresAt,
			successor.RevokedAt,
			nil,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE meditech\.refresh_tokens`).
		WithArgs(successor.ID, "hash-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	if err := repo.Rotate(context.Background(), "hash-1", successor); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_RevokeAllForCredential(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectExec(`UPDATE meditech\.refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "cred-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	revoked, err := repo.RevokeAllForCredential(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("RevokeAllForCredential returned error: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked tokens, got %d", revoked)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
