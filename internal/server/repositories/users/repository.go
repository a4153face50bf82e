// Package users declares the server-side store contract for user accounts.
// The token manager writes a user's live refresh token through this
// interface; everything else reads.
package users

import (
	"context"

	"github.com/dkravchuk/contactbook/internal/server/models"
)

// Repository defines persistence operations on user accounts.
type Repository interface {
	// Create inserts a new user and returns it with its generated ID.
	// Duplicate emails yield common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given email, or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given ID, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateRefreshToken overwrites the user's live refresh token. The
	// previous value, if any, is invalidated by the overwrite.
	UpdateRefreshToken(ctx context.Context, userID string, token string) error

	// MarkVerified flags the user's email address as confirmed.
	MarkVerified(ctx context.Context, userID string) error
}
