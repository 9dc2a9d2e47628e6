package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
)

// Verification token errors
var (
	ErrTokenExpired = errors.New("verification token expired")
	ErrTokenInvalid = errors.New("invalid verification token")
)

// Password recovery errors
var (
	ErrOTPExpired      = errors.New("verification code expired")
	ErrOTPIncorrect    = errors.New("incorrect verification code")
	ErrTooManyAttempts = errors.New("too many incorrect attempts")
	ErrNotAuthorized   = errors.New("password change not authorized")
)

// FieldViolation is a single validation failure tagged with the
// offending field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a credential check,
// not just the first, so callers can report them together.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
