package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/notely/identity/pkg/domain"
)

// DefaultSessionTTL is used when no session lifetime is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// LoginService authenticates credentials and issues session tokens. A
// session is only ever issued after a valid login against a verified
// account.
type LoginService struct {
	store      Store
	secret     []byte
	issuer     string
	sessionTTL time.Duration

	// dummyHash absorbs a password verification on the unknown-user
	// path so lookups that miss cost the same as a wrong password.
	dummyHash string
}

// NewLoginService creates a new login service.
func NewLoginService(store Store, secret []byte, issuer string, sessionTTL time.Duration) *LoginService {
	if sessionTTL == 0 {
		sessionTTL = DefaultSessionTTL
	}
	dummy, err := HashPassword(uuid.NewString())
	if err != nil {
		// crypto/rand failing is unrecoverable here; an empty hash
		// still makes VerifyPassword run its decode path.
		dummy = ""
	}
	return &LoginService{
		store:      store,
		secret:     secret,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		dummyHash:  dummy,
	}
}

// Login authenticates by email and password. An unknown email and a
// wrong password both fail with the same domain.ErrInvalidCredentials.
// A correct password against an unverified account fails with
// domain.ErrEmailNotVerified; that the email exists was already
// disclosed to its owner by the registration flow, so this is a UX
// signal, not a leak.
func (s *LoginService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			VerifyPassword(password, s.dummyHash)
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return "", domain.ErrEmailNotVerified
	}

	return s.issueSession(user)
}

func (s *LoginService) issueSession(user *domain.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
		Email:    user.Email,
		Username: user.Username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateSession parses and validates a session token.
func (s *LoginService) ValidateSession(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// SessionTTL returns the configured session lifetime.
func (s *LoginService) SessionTTL() time.Duration {
	return s.sessionTTL
}
