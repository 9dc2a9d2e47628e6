package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/notely/identity/pkg/domain"
)

func TestRegister_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.registration.Register(ctx, "alice", "A@X.com", "Passw0rd")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "a@x.com" {
		t.Errorf("email = %q, want normalized %q", user.Email, "a@x.com")
	}
	if user.EmailVerified {
		t.Error("new account must start unverified")
	}
	if user.PasswordHash == "Passw0rd" || user.PasswordHash == "" {
		t.Error("password stored in plaintext or empty")
	}

	stored, err := env.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("stored id = %v, want %v", stored.ID, user.ID)
	}

	if env.notifier.lastToken() == "" {
		t.Error("no verification token was dispatched")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registration.Register(ctx, "alice", "a@x.com", "Passw0rd"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	// Same email, different username: the email conflict is reported.
	_, err := env.registration.Register(ctx, "bob", "a@x.com", "Passw0rd")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("Register error = %v, want ErrEmailTaken", err)
	}

	// Email uniqueness is case-insensitive.
	_, err = env.registration.Register(ctx, "carol", "A@X.COM", "Passw0rd")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("Register error = %v, want ErrEmailTaken", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.registration.Register(ctx, "alice", "a@x.com", "Passw0rd"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := env.registration.Register(ctx, "alice", "b@x.com", "Passw0rd")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("Register error = %v, want ErrUsernameTaken", err)
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.registration.Register(ctx, "al", "bad-email", "weak")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Register error = %v, want *domain.ValidationError", err)
	}

	// Nothing was created and nothing was sent.
	if _, err := env.store.FindByEmail(ctx, "bad-email"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Error("invalid registration created an account")
	}
	if env.notifier.lastToken() != "" {
		t.Error("invalid registration dispatched a token")
	}
}

func TestRegister_NotifierFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv()
	env.notifier.fail = true
	ctx := context.Background()

	user, err := env.registration.Register(ctx, "alice", "a@x.com", "Passw0rd")
	if err != nil {
		t.Fatalf("Register failed on notifier error: %v", err)
	}

	// The account exists and is simply unverified; resend is the
	// recovery path.
	stored, err := env.store.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("account missing after delivery failure: %v", err)
	}
	if stored.EmailVerified {
		t.Error("account should remain unverified")
	}
}
