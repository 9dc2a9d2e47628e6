package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/notely/identity/pkg/domain"
)

// Store is the persistence boundary for user accounts. Every
// correctness-critical race is resolved here with atomic operations
// rather than in-process locks, because multiple server instances may
// run against the same database.
type Store interface {
	// CreateUser inserts a new account in a single atomic
	// check-and-insert. Returns domain.ErrEmailTaken or
	// domain.ErrUsernameTaken on a uniqueness conflict.
	CreateUser(ctx context.Context, user *domain.User) error

	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// MarkEmailVerified flips email_verified false -> true. Returns
	// false (no error) when the account was already verified, so
	// repeated verification is a no-op rather than an error. Returns
	// domain.ErrUserNotFound when no such account exists.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateOTPState replaces the account's recovery state with next
	// only if the current state equals prev (both may be nil). Returns
	// false when the state changed underneath the caller.
	UpdateOTPState(ctx context.Context, id uuid.UUID, prev, next *domain.OTPState) (bool, error)

	// SetPasswordAndClearOTP writes the new password hash and clears
	// the recovery state in one atomic operation, guarded on the state
	// being verified. Returns false if no verified state was present,
	// so a consumed recovery cycle cannot authorize a second change.
	SetPasswordAndClearOTP(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
}

// Notifier delivers secrets to the account holder out of band. Delivery
// is best-effort relative to the operation that triggered it: failures
// are logged by callers and never unwind committed state.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}
