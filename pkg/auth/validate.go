package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/notely/identity/pkg/domain"
)

// credentials is the shape checked on registration. Password rules are
// evaluated separately rule by rule so a password breaking several at
// once reports each of them; a struct tag chain stops at the first
// failing tag on a field.
type credentials struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
}

// passwordRules run in order against non-empty passwords. Each failed
// rule contributes its own violation.
var passwordRules = []struct {
	tag     string
	message string
}{
	{"min=8", "Password must be at least 8 characters"},
	{"haslower", "Password must contain at least one lowercase letter"},
	{"hasupper", "Password must contain at least one uppercase letter"},
	{"hasdigit", "Password must contain at least one number"},
}

// CredentialValidator is a pure policy check on username/email/password
// shape. It collects every violation found, each tagged with the
// offending field, so the caller can report them together.
type CredentialValidator struct {
	v *validator.Validate
}

// NewCredentialValidator builds the validator with the password
// character-class rules registered.
func NewCredentialValidator() *CredentialValidator {
	v := validator.New()

	// These cannot fail: the functions are non-nil.
	_ = v.RegisterValidation("haslower", func(fl validator.FieldLevel) bool {
		return strings.ContainsFunc(fl.Field().String(), unicode.IsLower)
	})
	_ = v.RegisterValidation("hasupper", func(fl validator.FieldLevel) bool {
		return strings.ContainsFunc(fl.Field().String(), unicode.IsUpper)
	})
	_ = v.RegisterValidation("hasdigit", func(fl validator.FieldLevel) bool {
		return strings.ContainsFunc(fl.Field().String(), unicode.IsDigit)
	})

	return &CredentialValidator{v: v}
}

// Validate checks registration credentials. Returns nil or a
// *domain.ValidationError carrying all violations. The username is
// trimmed before length checks, matching NormalizeUsername.
func (cv *CredentialValidator) Validate(username, email, password string) error {
	c := credentials{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
	}
	violations, err := cv.collect(cv.v.Struct(c))
	if err != nil {
		return err
	}
	violations = append(violations, cv.passwordViolations(password)...)
	if len(violations) == 0 {
		return nil
	}
	return &domain.ValidationError{Violations: violations}
}

// ValidatePassword checks a password alone against the same rules used
// at registration.
func (cv *CredentialValidator) ValidatePassword(password string) error {
	violations := cv.passwordViolations(password)
	if len(violations) == 0 {
		return nil
	}
	return &domain.ValidationError{Violations: violations}
}

func (cv *CredentialValidator) passwordViolations(password string) []domain.FieldViolation {
	if password == "" {
		return []domain.FieldViolation{{Field: "password", Message: "password is required"}}
	}
	var out []domain.FieldViolation
	for _, rule := range passwordRules {
		if cv.v.Var(password, rule.tag) != nil {
			out = append(out, domain.FieldViolation{Field: "password", Message: rule.message})
		}
	}
	return out
}

func (cv *CredentialValidator) collect(err error) ([]domain.FieldViolation, error) {
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	out := make([]domain.FieldViolation, 0, len(ve))
	for _, fe := range ve {
		out = append(out, domain.FieldViolation{
			Field:   strings.ToLower(fe.Field()),
			Message: violationMessage(fe),
		})
	}
	return out, nil
}

func violationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		return "The email is not valid"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// NormalizeEmail normalizes an email address by lowercasing and
// trimming. Uniqueness is case-insensitive for email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
