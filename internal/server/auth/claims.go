// Package auth implements the signed-token core: a Claims structure carried
// inside compact HS256 tokens, a Codec that encodes/decodes them, and an
// issuer for single-use email verification tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeEmailVerification tags tokens minted for the email confirmation flow.
const PurposeEmailVerification = "email-verification"

// Claims is the payload carried inside a signed token: a subject (the user's
// email), an expiry, and an optional purpose tag. Tokens without an expiry
// are rejected at decode time.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose,omitempty"`
}

// NewClaims builds a Claims value with the expiry always set.
func NewClaims(subject string, expiresAt time.Time, purpose string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purpose,
	}
}

// ExpiredAt reports whether the claims are past their expiry at the given
// instant. Decode does not check expiry; callers decide with this helper.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}
