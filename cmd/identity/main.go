package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/notely/identity/internal/config"
	httpserver "github.com/notely/identity/internal/http"
	"github.com/notely/identity/internal/notification"
	"github.com/notely/identity/pkg/auth"
	"github.com/notely/identity/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Pick the account store: Postgres when configured, in-memory for
	// local development.
	var store auth.Store
	if cfg.HasDB() {
		db, err := repository.NewDB(repository.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = repository.NewUsersRepository(db)
		logger.Info("connected to database")
	} else {
		store = repository.NewMemoryStore()
		logger.Warn("no database configured, using in-memory store")
	}

	// Pick the notifier: SMTP when configured, log-only otherwise.
	var notifier auth.Notifier
	if cfg.HasSMTP() {
		notifier = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			BaseURL:  cfg.AppBaseURL,
		})
		logger.Info("email delivery enabled")
	} else {
		notifier = &notification.LogSender{Logger: logger}
		logger.Warn("smtp not configured, secrets will be logged instead of emailed")
	}

	// Initialize services
	validator := auth.NewCredentialValidator()
	tokens := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.VerifyTokenTTL)

	registrationService := auth.NewRegistrationService(store, validator, tokens, notifier, logger)
	verificationService := auth.NewVerificationService(store, tokens, notifier, logger)
	loginService := auth.NewLoginService(store, []byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.SessionTTL)
	recoveryService := auth.NewRecoveryService(store, validator, notifier, logger, cfg.OTPTTL, cfg.OTPMaxAttempts)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:              logger,
		RegistrationService: registrationService,
		VerificationService: verificationService,
		LoginService:        loginService,
		RecoveryService:     recoveryService,
		RateLimitConfig:     cfg.RateLimit,
		SecurityHeaders:     cfg.SecurityHeaders,
		MaxRequestBodySize:  cfg.MaxRequestBodySize,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
