package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-with-32-characters!!"

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"JWT_SECRET", "SERVER_ADDR", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"VERIFY_TOKEN_TTL", "SESSION_TTL", "OTP_TTL", "OTP_MAX_ATTEMPTS",
		"SMTP_HOST", "SMTP_FROM", "RATE_LIMIT_ENABLED",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.VerifyTokenTTL != 6*time.Hour {
		t.Errorf("VerifyTokenTTL = %v, want %v", cfg.VerifyTokenTTL, 6*time.Hour)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want %v", cfg.OTPTTL, 10*time.Minute)
	}
	if cfg.OTPMaxAttempts != 5 {
		t.Errorf("OTPMaxAttempts = %d, want 5", cfg.OTPMaxAttempts)
	}
	if cfg.HasDB() {
		t.Error("HasDB() = true with no DB_HOST set")
	}
	if cfg.HasSMTP() {
		t.Error("HasSMTP() = true with no SMTP config set")
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}

	t.Setenv("JWT_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is under 32 characters")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("VERIFY_TOKEN_TTL", "2h")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("SMTP_HOST", "smtp.internal")
	t.Setenv("SMTP_FROM", "noreply@notely.app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if !cfg.HasDB() {
		t.Error("HasDB() = false with DB_HOST set")
	}
	if cfg.VerifyTokenTTL != 2*time.Hour {
		t.Errorf("VerifyTokenTTL = %v, want 2h", cfg.VerifyTokenTTL)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.OTPTTL)
	}
	if cfg.OTPMaxAttempts != 3 {
		t.Errorf("OTPMaxAttempts = %d, want 3", cfg.OTPMaxAttempts)
	}
	if !cfg.HasSMTP() {
		t.Error("HasSMTP() = false with SMTP config set")
	}
}

func TestLoad_InvalidAttemptBudget(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("OTP_MAX_ATTEMPTS", "0")

	if _, err := Load(); err == nil {
		t.Error("Load should reject OTP_MAX_ATTEMPTS below 1")
	}
}
