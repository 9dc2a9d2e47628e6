package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/notely/identity/pkg/domain"
)

// VerificationService consumes verification tokens and transitions
// accounts to the verified state.
type VerificationService struct {
	store    Store
	tokens   *TokenCodec
	notifier Notifier
	logger   *slog.Logger
}

// NewVerificationService creates a new verification service.
func NewVerificationService(store Store, tokens *TokenCodec, notifier Notifier, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

// VerifyEmail decodes a verification token and flips the named account
// to verified. An account that is already verified reports success, so
// repeated clicks on the same email link never error. A well-formed
// token naming an account that no longer exists fails the same way as a
// forged one, to avoid confirming ids through token guessing.
func (s *VerificationService) VerifyEmail(ctx context.Context, rawToken string) error {
	userID, err := s.tokens.Verify(rawToken)
	if err != nil {
		return err
	}

	_, err = s.store.MarkEmailVerified(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrTokenInvalid
	}
	return err
}

// ResendVerification issues a fresh token for an unverified account and
// dispatches it. It reports success regardless of whether the email
// maps to an account, so the endpoint cannot be used for enumeration.
func (s *VerificationService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue verification token", "error", err, "user_id", user.ID)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.notifier.SendVerificationEmail(sendCtx, user.Email, token); err != nil {
		s.logger.Error("failed to resend verification email", "error", err, "user_id", user.ID)
	}
	return nil
}
