package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/notely/identity/pkg/domain"
)

// TokenCodec issues and verifies the signed, expiring email
// verification tokens. Tokens are stateless and self-verifying: the
// user id and expiry travel inside the token, protected by the
// process-wide signing key, so a link clicked after a server restart
// still verifies. The key is injected once at construction and never
// changes.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenCodec creates a codec with the given signing key, issuer
// claim, and token lifetime.
func NewTokenCodec(secret []byte, issuer string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, issuer: issuer, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token naming the user and carrying an expiry.
// The jti makes every issuance distinct even within the same second, so
// a reissued token never collides with an earlier one.
func (c *TokenCodec) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature and expiry and returns the user id the token
// names. Expired tokens fail with domain.ErrTokenExpired; anything else
// wrong with the token (bad signature, malformed, wrong algorithm,
// unparsable subject) collapses to domain.ErrTokenInvalid.
func (c *TokenCodec) Verify(raw string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, domain.ErrTokenExpired
		}
		return uuid.Nil, domain.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrTokenInvalid
	}
	return userID, nil
}
