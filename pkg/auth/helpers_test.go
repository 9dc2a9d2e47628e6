package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/notely/identity/pkg/repository"
)

// fakeNotifier captures dispatched secrets so tests can complete the
// verification and recovery flows end to end.
type fakeNotifier struct {
	mu     sync.Mutex
	tokens []string
	codes  []string
	fail   bool
}

func (f *fakeNotifier) SendVerificationEmail(_ context.Context, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.tokens = append(f.tokens, token)
	return nil
}

func (f *fakeNotifier) SendPasswordResetCode(_ context.Context, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp: connection refused")
	}
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeNotifier) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func (f *fakeNotifier) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return ""
	}
	return f.codes[len(f.codes)-1]
}

// testEnv wires the full service stack over an in-memory store.
type testEnv struct {
	store        *repository.MemoryStore
	notifier     *fakeNotifier
	tokens       *TokenCodec
	registration *RegistrationService
	verification *VerificationService
	login        *LoginService
	recovery     *RecoveryService
}

func newTestEnv() *testEnv {
	return newTestEnvWithTTLs(time.Hour, 10*time.Minute)
}

func newTestEnvWithTTLs(tokenTTL, otpTTL time.Duration) *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	notifier := &fakeNotifier{}
	validator := NewCredentialValidator()
	tokens := NewTokenCodec(testSecret, "test", tokenTTL)

	return &testEnv{
		store:        store,
		notifier:     notifier,
		tokens:       tokens,
		registration: NewRegistrationService(store, validator, tokens, notifier, logger),
		verification: NewVerificationService(store, tokens, notifier, logger),
		login:        NewLoginService(store, testSecret, "test", time.Hour),
		recovery:     NewRecoveryService(store, validator, notifier, logger, otpTTL, 5),
	}
}
