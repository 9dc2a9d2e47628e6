package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notely/identity/internal/config"
	"github.com/notely/identity/internal/http/features/email"
	"github.com/notely/identity/internal/http/features/recovery"
	"github.com/notely/identity/internal/http/features/register"
	"github.com/notely/identity/internal/http/features/session"
	"github.com/notely/identity/internal/http/middleware"
	"github.com/notely/identity/internal/httputil"
	"github.com/notely/identity/pkg/auth"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger              *slog.Logger
	RegistrationService *auth.RegistrationService
	VerificationService *auth.VerificationService
	LoginService        *auth.LoginService
	RecoveryService     *auth.RecoveryService
	RateLimitConfig     config.RateLimitConfig
	SecurityHeaders     config.SecurityHeadersConfig
	MaxRequestBodySize  int64
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	registerHandler := register.NewHandler(cfg.Logger, cfg.RegistrationService)
	emailHandler := email.NewHandler(cfg.Logger, cfg.VerificationService)
	sessionHandler := session.NewHandler(cfg.Logger, cfg.LoginService)
	recoveryHandler := recovery.NewHandler(cfg.Logger, cfg.RecoveryService)

	r.Route("/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["auth"])
			r.Post("/register", registerHandler.Register)
			r.Post("/login", sessionHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["verify"])
			r.Post("/verify", emailHandler.VerifyEmail)
			r.Post("/resend-verification", emailHandler.ResendVerification)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["reset"])
			r.Post("/forgot-password", recoveryHandler.ForgotPassword)
			r.Post("/verify-otp", recoveryHandler.VerifyOTP)
			r.Post("/change-password", recoveryHandler.ChangePassword)
		})

		r.Post("/logout", sessionHandler.Logout)
		r.With(middleware.Auth(cfg.LoginService)).Get("/me", sessionHandler.Me)
	})

	return r
}
