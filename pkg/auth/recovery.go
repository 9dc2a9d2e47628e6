package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/notely/identity/pkg/domain"
)

// Recovery defaults.
const (
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPMaxAttempts = 5
)

// RecoveryService runs the forgot-password flow: a one-time code is
// issued and delivered out of band, a bounded number of attempts may be
// spent verifying it, and a successfully verified code authorizes
// exactly one password change.
//
// Per account the recovery state moves NONE -> ISSUED -> VERIFIED ->
// NONE, with ISSUED -> NONE on expiry or attempt exhaustion. Every
// transition is a single compare-and-set on the whole state, so
// concurrent or retried requests cannot skip the attempt budget or
// double-spend a verified code.
type RecoveryService struct {
	store       Store
	validator   *CredentialValidator
	notifier    Notifier
	logger      *slog.Logger
	otpTTL      time.Duration
	maxAttempts int
}

// NewRecoveryService creates a new password recovery service.
func NewRecoveryService(store Store, validator *CredentialValidator, notifier Notifier, logger *slog.Logger, otpTTL time.Duration, maxAttempts int) *RecoveryService {
	if otpTTL == 0 {
		otpTTL = DefaultOTPTTL
	}
	if maxAttempts == 0 {
		maxAttempts = DefaultOTPMaxAttempts
	}
	return &RecoveryService{
		store:       store,
		validator:   validator,
		notifier:    notifier,
		logger:      logger,
		otpTTL:      otpTTL,
		maxAttempts: maxAttempts,
	}
}

// RequestReset starts a fresh recovery cycle and emails the code. It
// always reports success to the caller, whether or not the email maps
// to an account, so the endpoint cannot be used for enumeration. A
// fresh request overwrites any prior cycle: only the most recent code
// is valid.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	issue, err := GenerateOTP(s.otpTTL)
	if err != nil {
		return err
	}

	next := &domain.OTPState{
		CodeHash:  issue.CodeHash,
		ExpiresAt: issue.ExpiresAt,
	}
	ok, err := s.store.UpdateOTPState(ctx, user.ID, user.OTP, next)
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent request replaced the state first; its code is
		// the valid one, so do not send ours.
		s.logger.Info("concurrent reset request superseded this one", "user_id", user.ID)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.notifier.SendPasswordResetCode(sendCtx, user.Email, issue.Code); err != nil {
		// The issued state stays valid; the user can request again.
		s.logger.Error("failed to send reset code", "error", err, "user_id", user.ID)
	}
	return nil
}

// VerifyOTP spends one attempt checking a submitted code. The attempt
// is counted atomically with the check, so a wrong code still consumes
// budget and concurrent submissions cannot both slip under the limit.
// An exhausted or expired cycle is dead: it is cleared and a new
// RequestReset is required.
func (s *RecoveryService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same failure as a wrong code against a real account.
			return domain.ErrOTPIncorrect
		}
		return err
	}

	state := user.OTP
	if state == nil {
		return domain.ErrOTPIncorrect
	}

	if state.Attempts >= s.maxAttempts {
		if _, err := s.store.UpdateOTPState(ctx, user.ID, state, nil); err != nil {
			return err
		}
		return domain.ErrTooManyAttempts
	}

	if state.Expired(time.Now()) {
		if _, err := s.store.UpdateOTPState(ctx, user.ID, state, nil); err != nil {
			return err
		}
		return domain.ErrOTPExpired
	}

	match := CheckOTP(code, state.CodeHash)

	next := state.Clone()
	next.Attempts++
	next.Verified = match

	ok, err := s.store.UpdateOTPState(ctx, user.ID, state, next)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to a concurrent attempt. That attempt's
		// outcome stands; this one reports failure rather than
		// retrying past the budget check.
		return domain.ErrOTPIncorrect
	}

	if !match {
		return domain.ErrOTPIncorrect
	}
	return nil
}

// ChangePassword performs the single password reset a verified code
// authorizes. The new password passes the same validator as at
// registration. The store clears the recovery state in the same atomic
// write as the password, so the consumed cycle cannot authorize a
// second change even if its code is still unexpired.
func (s *RecoveryService) ChangePassword(ctx context.Context, email, newPassword string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrNotAuthorized
		}
		return err
	}

	state := user.OTP
	if state == nil || !state.Verified || state.Expired(time.Now()) {
		return domain.ErrNotAuthorized
	}

	if err := s.validator.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.store.SetPasswordAndClearOTP(ctx, user.ID, hash)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotAuthorized
	}

	s.logger.Info("password changed via recovery", "user_id", user.ID)
	return nil
}

// MaxAttempts returns the configured attempt budget.
func (s *RecoveryService) MaxAttempts() int {
	return s.maxAttempts
}
