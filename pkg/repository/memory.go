package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notely/identity/pkg/domain"
)

// MemoryStore is an in-memory auth.Store used when no database is
// configured (local development) and in tests. It implements the same
// compare-and-set semantics as the Postgres repository, guarded by a
// single mutex. State does not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
	byName  map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
		byName:  make(map[string]uuid.UUID),
	}
}

// CreateUser inserts a new account, enforcing email and username
// uniqueness under the store lock.
func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	if _, ok := s.byName[user.Username]; ok {
		return domain.ErrUsernameTaken
	}

	stored := cloneUser(user)
	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	s.byName[stored.Username] = stored.ID
	return nil
}

// FindByEmail retrieves a user by normalized email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

// FindByID retrieves a user by ID.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// MarkEmailVerified flips the verified flag exactly once.
func (s *MemoryStore) MarkEmailVerified(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if user.EmailVerified {
		return false, nil
	}
	user.EmailVerified = true
	user.UpdatedAt = time.Now()
	return true, nil
}

// UpdateOTPState applies next only if the stored state equals prev.
func (s *MemoryStore) UpdateOTPState(_ context.Context, id uuid.UUID, prev, next *domain.OTPState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if !user.OTP.Equal(prev) {
		return false, nil
	}
	user.OTP = next.Clone()
	user.UpdatedAt = time.Now()
	return true, nil
}

// SetPasswordAndClearOTP writes the hash and clears the recovery state,
// guarded on the state being verified.
func (s *MemoryStore) SetPasswordAndClearOTP(_ context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if user.OTP == nil || !user.OTP.Verified {
		return false, nil
	}
	user.PasswordHash = passwordHash
	user.OTP = nil
	user.UpdatedAt = time.Now()
	return true, nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.OTP = u.OTP.Clone()
	return &c
}
