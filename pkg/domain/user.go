package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents the account.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	OTP           *OTPState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
