package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/notely/identity/pkg/domain"
)

// RegistrationService turns an unauthenticated registration request
// into an unverified account with a verification token on its way out.
type RegistrationService struct {
	store     Store
	validator *CredentialValidator
	tokens    *TokenCodec
	notifier  Notifier
	logger    *slog.Logger
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(store Store, validator *CredentialValidator, tokens *TokenCodec, notifier Notifier, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		store:     store,
		validator: validator,
		tokens:    tokens,
		notifier:  notifier,
		logger:    logger,
	}
}

// Register validates credentials, creates the account, and dispatches a
// verification email. Uniqueness is enforced by the store's atomic
// insert, not a read-then-write check, so concurrent registrations with
// the same email cannot both succeed. A failure to issue or deliver the
// verification token is logged but never rolls back the created
// account; the resend endpoint is the recovery path.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if err := s.validator.Validate(username, email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     NormalizeUsername(username),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)

	return user, nil
}

func (s *RegistrationService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue verification token", "error", err, "user_id", user.ID)
		return
	}

	// Delivery gets its own deadline so a slow SMTP server cannot hold
	// the registration response hostage past a bound.
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.notifier.SendVerificationEmail(sendCtx, user.Email, token); err != nil {
		s.logger.Error("failed to send verification email", "error", err, "user_id", user.ID)
		return
	}
	s.logger.Info("verification email sent", "user_id", user.ID)
}
