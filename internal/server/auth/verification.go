package auth

import "time"

// VerificationTokenValidity is the fixed lifetime of email verification
// tokens.
const VerificationTokenValidity = 60 * time.Minute

// VerificationIssuer mints and checks single-use email verification tokens.
// Tokens are not persisted; validity is determined entirely by signature,
// expiry, and subject match at verification time.
type VerificationIssuer struct {
	codec *Codec
	now   func() time.Time
}

// NewVerificationIssuer constructs an issuer backed by the given codec.
func NewVerificationIssuer(codec *Codec) *VerificationIssuer {
	return &VerificationIssuer{codec: codec, now: time.Now}
}

// Issue returns a verification token for the given email, valid for
// VerificationTokenValidity from now.
func (i *VerificationIssuer) Issue(email string) (string, error) {
	claims := NewClaims(email, i.now().Add(VerificationTokenValidity), PurposeEmailVerification)
	return i.codec.Encode(claims)
}

// Verify reports whether token is a currently valid verification token for
// email. All failure modes (decode failure, subject mismatch, purpose
// mismatch, expiry) collapse to false: confirmation endpoints treat them
// identically. The caller marks the user verified on a true result.
func (i *VerificationIssuer) Verify(email string, token string) bool {
	claims, err := i.codec.Decode(token)
	if err != nil {
		return false
	}
	if claims.Subject != email {
		return false
	}
	if claims.Purpose != PurposeEmailVerification {
		return false
	}
	if claims.ExpiredAt(i.now()) {
		return false
	}
	return true
}
