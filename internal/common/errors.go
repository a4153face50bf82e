// Package common defines shared constants and sentinel errors used across
// contactbook components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token decode errors. ErrMalformedToken covers input that cannot be
	// parsed at all; ErrInvalidSignature covers input that parses but whose
	// signature does not verify against the configured secret.
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// User lookup during token operations.
	ErrUserNotFound = errors.New("user not found")

	// Startup configuration errors.
	ErrMissingSecretKey = errors.New("secret key is not configured")
)
