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

// ErrInvalidOrExpiredToken covers absent, revoked, and expired refresh
// tokens. Revoked-but-unexpired tokens are deliberately indistinguishable
// from expired ones: a replayed link of a rotation chain is always rejected.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")

// TokenService mints, rotates, and revokes token pairs.
type TokenService struct {
	signer      *security.TokenSigner
	tokens      port.TokenRepository
	credentials port.CredentialRepository
	denylist    port.Denylist
	events      port.EventPublisher
	logger      *zap.Logger
	denylistTTL time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(
	signer *security.TokenSigner,
	tokens port.TokenRepository,
	credentials port.CredentialRepository,
	denylist port.Denylist,
	events port.EventPublisher,
	logger *zap.Logger,
	denylistTTL time.Duration,
) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if denylistTTL <= 0 {
		denylistTTL = time.Hour
	}

	return &TokenService{
		signer:      signer,
		tokens:      tokens,
		credentials: credentials,
		denylist:    denylist,
		events:      events,
		logger:      logger,
		denylistTTL: denylistTTL,
	}
}

// Issue mints a token pair for the credential and persists the refresh token
// record. Any persistence failure aborts the whole issuance: an access token
// without a durable refresh record would be unrecoverable on logout.
func (s *TokenService) Issue(ctx context.Context, cred domain.Credential) (domain.TokenPair, error) {
	access, accessExp, err := s.signer.SignAccess(cred)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, refreshExp, err := s.signer.SignRefresh(cred)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	record := domain.RefreshToken{
		ID:           uuid.NewString(),
		CredentialID: cred.ID,
		TokenHash:    security.HashToken(refresh),
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    refreshExp,
	}

	if err := s.tokens.Create(ctx, record); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Rotate redeems a refresh token for a fresh pair. The presented token is
// usable at most once: the persisted record is atomically revoked and linked
// to its successor, so a concurrent redemption of the same token yields
// exactly one success.
func (s *TokenService) Rotate(ctx context.Context, presented string) (domain.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return domain.TokenPair{}, ErrInvalidOrExpiredToken
	}

	if _, err := s.signer.ParseRefresh(presented); err != nil {
		return domain.TokenPair{}, ErrInvalidOrExpiredToken
	}

	hash := security.HashToken(presented)
	record, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidOrExpiredToken
		}
		return domain.TokenPair{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	now := time.Now().UTC()
	if record.RevokedAt != nil || now.After(record.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidOrExpiredToken
	}

	cred, err := s.credentials.GetByID(ctx, record.CredentialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidOrExpiredToken
		}
		return domain.TokenPair{}, fmt.Errorf("lookup credential: %w", err)
	}
	if cred.Status != domain.AccountStatusActive {
		return domain.TokenPair{}, ErrInvalidOrExpiredToken
	}

	access, accessExp, err := s.signer.SignAccess(*cred)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.signer.SignRefresh(*cred)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	successor := domain.RefreshToken{
		ID:           uuid.NewString(),
		CredentialID: cred.ID,
		TokenHash:    security.HashToken(refresh),
		CreatedAt:    now,
		ExpiresAt:    refreshExp,
	}

	if err := s.tokens.Rotate(ctx, hash, successor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A concurrent rotation won the race; the presented token is spent.
			return domain.TokenPair{}, ErrInvalidOrExpiredToken
		}
		return domain.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Revoke handles logout: every non-revoked refresh token for the credential
// is marked revoked, and a short-lived denylist marker rejects the
// credential's still-unexpired access tokens. The marker is a best-effort
// mitigation, so a cache failure is logged rather than surfaced.
func (s *TokenService) Revoke(ctx context.Context, credentialID string) error {
	if credentialID == "" {
		return fmt.Errorf("credential id is required")
	}

	revoked, err := s.tokens.RevokeAllForCredential(ctx, credentialID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	if s.denylist != nil {
		if err := s.denylist.Mark(ctx, credentialID, s.denylistTTL); err != nil {
			s.logger.Warn("failed to set denylist marker",
				zap.String("credential_id", credentialID),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		if err := s.events.PublishTokensRevoked(ctx, domain.TokensRevokedEvent{
			EventID:       uuid.NewString(),
			CredentialID:  credentialID,
			TokensRevoked: revoked,
			OccurredAt:    time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("publish tokens revoked event", zap.Error(err))
		}
	}

	return nil
}

// ParseAccess validates an access token and rejects tokens for denylisted
// credentials. Used by the request-authentication middleware.
func (s *TokenService) ParseAccess(ctx context.Context, token string) (*security.TokenClaims, error) {
	claims, err := s.signer.ParseAccess(token)
	if err != nil {
		return nil, err
	}

	if s.denylist != nil {
		denied, err := s.denylist.IsDenied(ctx, claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("consult denylist: %w", err)
		}
		if denied {
			return nil, security.ErrTokenInvalid
		}
	}

	return claims, nil
}
