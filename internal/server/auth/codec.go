package auth

import (
	"errors"

	"github.com/dkravchuk/contactbook/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// signingMethod is the only accepted algorithm. The parser pins it via
// WithValidMethods so tokens signed with anything else fail verification.
var signingMethod = jwt.SigningMethodHS256

// Codec encodes Claims into signed compact tokens and decodes them back,
// verifying the signature with a process-wide shared secret. Decode checks
// authenticity and shape only; expiry is the caller's responsibility.
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec. An empty secret is a configuration error and
// must abort startup.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, common.ErrMissingSecretKey
	}
	return &Codec{secret: secret}, nil
}

// Encode serializes the claims and signs them, returning the opaque token
// string. Claims without an expiry violate the token contract and are
// rejected.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims.ExpiresAt == nil {
		return "", common.ErrMalformedToken
	}
	token := jwt.NewWithClaims(signingMethod, claims)
	return token.SignedString(c.secret)
}

// Decode splits and verifies the token, returning its Claims. It reports
// common.ErrInvalidSignature when the token parses but its signature does not
// verify (including algorithm substitution), and common.ErrMalformedToken
// when the token cannot be parsed or is missing its expiry. Segments are
// decoded strictly, so non-canonical base64url encodings (for example a
// mutated final signature character that only changes unused trailing bits)
// are rejected as malformed. Expiry is NOT validated here.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrInvalidSignature
		}
		return nil, common.ErrMalformedToken
	}
	if claims.ExpiresAt == nil {
		return nil, common.ErrMalformedToken
	}
	return claims, nil
}
