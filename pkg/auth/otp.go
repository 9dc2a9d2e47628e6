package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// OTP code parameters. Six digits is short enough to type from a phone
// screen; the low entropy is compensated by the server-side attempt
// budget, not by the code itself.
const otpDigits = 6

var otpMax = big.NewInt(1_000_000)

// OTPIssue is a freshly generated recovery code. Code is the plaintext
// sent to the user and never persisted; only CodeHash and ExpiresAt are
// stored.
type OTPIssue struct {
	Code      string
	CodeHash  string
	ExpiresAt time.Time
}

// GenerateOTP draws a uniform 6-digit code from a cryptographically
// strong random source.
func GenerateOTP(ttl time.Duration) (*OTPIssue, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	code := fmt.Sprintf("%0*d", otpDigits, n)
	return &OTPIssue{
		Code:      code,
		CodeHash:  HashOTP(code),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// HashOTP returns the one-way derivation of a code that is safe to
// store.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CheckOTP compares a submitted code against a stored hash in constant
// time.
func CheckOTP(code, codeHash string) bool {
	sum := sha256.Sum256([]byte(code))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(codeHash)) == 1
}
