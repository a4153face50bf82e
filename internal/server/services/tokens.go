// Package services contains server-side business logic. This file implements
// TokenService, the access/refresh token manager: it mints access tokens,
// mints refresh tokens persisted against the user record, rotates access
// tokens from a valid refresh token, and authenticates inbound bearer tokens
// into a user identity.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkravchuk/contactbook/internal/common"
	"github.com/dkravchuk/contactbook/internal/dbx"
	"github.com/dkravchuk/contactbook/internal/server/auth"
	"github.com/dkravchuk/contactbook/internal/server/config"
	"github.com/dkravchuk/contactbook/internal/server/models"
	"github.com/dkravchuk/contactbook/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService is the access/refresh token manager. Refresh tokens are the
// only tokens with a write side effect: issuing one overwrites the user's
// stored token, invalidating the previous one. Concurrent issuance for the
// same subject is last-writer-wins by design; a user overwriting their own
// refresh token is benign since only one token needs to be current.
type TokenService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	codec                        *auth.Codec
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewTokenService constructs a TokenService using repositories, the token
// codec, and server config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                           db,
		repomanager:                  m,
		codec:                        codec,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// IssueAccessToken mints an access token for the subject. Access tokens are
// stateless: not persisted and not revocable before expiry. A non-positive
// ttl means the configured default.
func (s *TokenService) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.accessTokenValidityDuration
	}
	return s.codec.Encode(auth.NewClaims(subject, s.now().Add(ttl), ""))
}

// IssueRefreshToken mints a refresh token for the subject and persists it on
// the user record, overwriting any prior value. Unknown subjects yield
// common.ErrUserNotFound. The lookup and write run in one transaction; under
// concurrent issuance for the same subject the last writer wins.
func (s *TokenService) IssueRefreshToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.refreshTokenValidityDuration
	}

	token, err := s.codec.Encode(auth.NewClaims(subject, s.now().Add(ttl), ""))
	if err != nil {
		return "", fmt.Errorf("error encoding refresh token: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmail(ctx, subject)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return common.ErrorInternal
		}

		return repo.UpdateRefreshToken(ctx, user.ID, token)
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// RotateAccessToken exchanges a refresh token for a fresh access token.
// Decode failures and absent subjects yield common.ErrInvalidToken; an
// expired refresh token yields common.ErrRefreshTokenExpired; an unknown
// subject yields common.ErrUserNotFound.
func (s *TokenService) RotateAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	if claims.ExpiredAt(s.now()) {
		return "", common.ErrRefreshTokenExpired
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserNotFound
		}
		return "", common.ErrorInternal
	}

	return s.IssueAccessToken(user.Email, 0)
}

// Authenticate resolves a bearer credential into a user. Every failure mode
// (malformed token, bad signature, absent subject, expiry, unknown user)
// collapses to common.ErrorUnauthorized so the response does not reveal which
// check failed.
func (s *TokenService) Authenticate(ctx context.Context, bearerToken string) (*models.User, error) {
	token := strings.TrimPrefix(bearerToken, common.BearerPrefix)

	claims, err := s.codec.Decode(token)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	if claims.Subject == "" {
		return nil, common.ErrorUnauthorized
	}
	if claims.ExpiredAt(s.now()) {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}
