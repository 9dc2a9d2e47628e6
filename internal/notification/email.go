package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// EmailConfig holds SMTP configuration.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// BaseURL is the application URL verification links point at.
	BaseURL string
}

// EmailService delivers verification links and recovery codes over
// SMTP. It implements auth.Notifier.
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new email service.
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// SendVerificationEmail sends the email verification link.
func (s *EmailService) SendVerificationEmail(ctx context.Context, to, token string) error {
	verifyURL := fmt.Sprintf("%s/verify/%s", s.config.BaseURL, token)
	subject := "Verify Your Email Address"
	body := fmt.Sprintf(`<html><body>
		<h2>Verify Your Email Address</h2>
		<p>Thank you for registering! Please verify your email address to complete your registration.</p>
		<p><a href="%s">Click here to verify your email</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in a few hours.</p>
	</body></html>`, verifyURL, verifyURL)
	return s.sendEmail(ctx, to, subject, body)
}

// SendPasswordResetCode sends the one-time recovery code.
func (s *EmailService) SendPasswordResetCode(ctx context.Context, to, code string) error {
	subject := "Your Password Reset Code"
	body := fmt.Sprintf(`<html><body>
		<h2>Password Reset Requested</h2>
		<p>Your one-time code is:</p>
		<h1>%s</h1>
		<p>Enter it in the app to continue. The code expires shortly and allows a limited number of attempts.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	</body></html>`, code)
	return s.sendEmail(ctx, to, subject, body)
}

func (s *EmailService) sendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg))
}

// LogSender is a development fallback used when SMTP is not configured.
// It logs the secret instead of delivering it, so local flows can be
// completed by reading the server log.
type LogSender struct {
	Logger *slog.Logger
}

// SendVerificationEmail logs the verification token.
func (s *LogSender) SendVerificationEmail(_ context.Context, to, token string) error {
	s.Logger.Info("verification email (smtp not configured)", "to", to, "token", token)
	return nil
}

// SendPasswordResetCode logs the recovery code.
func (s *LogSender) SendPasswordResetCode(_ context.Context, to, code string) error {
	s.Logger.Info("password reset code (smtp not configured)", "to", to, "code", code)
	return nil
}
