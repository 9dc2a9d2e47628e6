package auth

import (
	"errors"
	"testing"

	"github.com/notely/identity/pkg/domain"
)

func TestCredentialValidator_Validate(t *testing.T) {
	cv := NewCredentialValidator()

	tests := []struct {
		name       string
		username   string
		email      string
		password   string
		wantFields []string
	}{
		{
			name:     "all valid",
			username: "alice",
			email:    "a@x.com",
			password: "Passw0rd",
		},
		{
			name:     "username with surrounding whitespace is trimmed",
			username: "  bob  ",
			email:    "bob@example.com",
			password: "Str0ngPass",
		},
		{
			name:       "username too short",
			username:   "ab",
			email:      "a@x.com",
			password:   "Passw0rd",
			wantFields: []string{"username"},
		},
		{
			name:       "whitespace does not pad username length",
			username:   " a ",
			email:      "a@x.com",
			password:   "Passw0rd",
			wantFields: []string{"username"},
		},
		{
			name:       "invalid email",
			username:   "alice",
			email:      "not-an-email",
			password:   "Passw0rd",
			wantFields: []string{"email"},
		},
		{
			name:       "password too short",
			username:   "alice",
			email:      "a@x.com",
			password:   "Pw0rd",
			wantFields: []string{"password"},
		},
		{
			name:       "password missing uppercase",
			username:   "alice",
			email:      "a@x.com",
			password:   "passw0rd",
			wantFields: []string{"password"},
		},
		{
			name:       "password missing lowercase",
			username:   "alice",
			email:      "a@x.com",
			password:   "PASSW0RD",
			wantFields: []string{"password"},
		},
		{
			name:       "password missing digit",
			username:   "alice",
			email:      "a@x.com",
			password:   "Password",
			wantFields: []string{"password"},
		},
		{
			name:       "all fields invalid reported together",
			username:   "ab",
			email:      "bad",
			password:   "short",
			wantFields: []string{"username", "email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cv.Validate(tt.username, tt.email, tt.password)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *domain.ValidationError", err)
			}

			got := map[string]bool{}
			for _, v := range ve.Violations {
				got[v.Field] = true
			}
			for _, f := range tt.wantFields {
				if !got[f] {
					t.Errorf("missing violation for field %q, got %v", f, ve.Violations)
				}
			}
		})
	}
}

func TestCredentialValidator_ValidatePassword_MultipleViolations(t *testing.T) {
	cv := NewCredentialValidator()

	// A short all-caps password breaks several rules at once; every
	// failure must be reported, not just the first.
	err := cv.ValidatePassword("ABC")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("ValidatePassword() error = %v, want *domain.ValidationError", err)
	}
	if len(ve.Violations) < 3 {
		t.Errorf("expected at least 3 violations (length, lowercase, number), got %v", ve.Violations)
	}
	messages := map[string]bool{}
	for _, v := range ve.Violations {
		if v.Field != "password" {
			t.Errorf("violation field = %q, want %q", v.Field, "password")
		}
		messages[v.Message] = true
	}
	for _, want := range []string{
		"Password must be at least 8 characters",
		"Password must contain at least one lowercase letter",
		"Password must contain at least one number",
	} {
		if !messages[want] {
			t.Errorf("missing violation %q, got %v", want, ve.Violations)
		}
	}
}

func TestCredentialValidator_SharedPolicy(t *testing.T) {
	cv := NewCredentialValidator()

	// The same password must pass or fail identically through both
	// entry points.
	for _, password := range []string{"Passw0rd", "weakpass", "SHOUT123", "NoDigits!"} {
		full := cv.Validate("alice", "a@x.com", password)
		lone := cv.ValidatePassword(password)
		if (full == nil) != (lone == nil) {
			t.Errorf("password %q: Validate err=%v, ValidatePassword err=%v", password, full, lone)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "alice@example.com")
	}
}
