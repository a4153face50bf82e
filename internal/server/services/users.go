package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkravchuk/contactbook/internal/common"
	"github.com/dkravchuk/contactbook/internal/server/auth"
	"github.com/dkravchuk/contactbook/internal/server/config"
	"github.com/dkravchuk/contactbook/internal/server/email"
	"github.com/dkravchuk/contactbook/internal/server/models"
	"github.com/dkravchuk/contactbook/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides account-related operations:
// - Register: create users and dispatch the verification email
// - Login: verify credentials and mint a token pair
// - ConfirmEmail: check a verification token and mark the user verified
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	verifier    *auth.VerificationIssuer
	sender      email.Sender
	baseURL     string
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService, verifier *auth.VerificationIssuer, sender email.Sender, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		verifier:    verifier,
		sender:      sender,
		baseURL:     cfg.PublicBaseURL,
	}
}

// Register creates an unverified user with the given email and password and
// sends the confirmation email. Duplicate emails yield
// common.ErrorAlreadyExists; email delivery failure is returned to the
// caller.
func (s *UserService) Register(ctx context.Context, userEmail string, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Email: userEmail, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.verifier.Issue(userEmail)
	if err != nil {
		return nil, common.ErrorInternal
	}

	link, err := email.VerificationLink(s.baseURL, userEmail, token)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.sender.SendVerification(ctx, userEmail, link); err != nil {
		return nil, fmt.Errorf("error sending verification email: %w", err)
	}

	return user, nil
}

// Login verifies the email/password pair and, on success, returns a new
// TokenPair with the refresh token persisted. Unknown email and wrong
// password are indistinguishable: both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userEmail string, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Email, 0)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.tokens.IssueRefreshToken(ctx, user.Email, 0)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ConfirmEmail checks the verification token and marks the user verified.
// All failures (unknown user, bad token, expired token, subject mismatch)
// collapse to common.ErrInvalidToken: the confirmation endpoint reports them
// identically.
func (s *UserService) ConfirmEmail(ctx context.Context, userEmail string, token string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, userEmail)
	if err != nil {
		return common.ErrInvalidToken
	}

	if !s.verifier.Verify(userEmail, token) {
		return common.ErrInvalidToken
	}

	if err := repo.MarkVerified(ctx, user.ID); err != nil {
		return common.ErrorInternal
	}

	return nil
}
