package recovery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notely/identity/internal/httputil"
	"github.com/notely/identity/pkg/auth"
	"github.com/notely/identity/pkg/domain"
)

// Handler handles the forgot-password flow: code request, code
// verification, and the password change the verified code authorizes.
type Handler struct {
	logger   *slog.Logger
	recovery *auth.RecoveryService
}

// NewHandler creates a new recovery handler.
func NewHandler(logger *slog.Logger, recovery *auth.RecoveryService) *Handler {
	return &Handler{logger: logger, recovery: recovery}
}

// ForgotRequest represents a forgot-password request.
type ForgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts a recovery cycle. Responds 200 whether or not
// the address maps to an account.
// POST /user/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.recovery.RequestReset(r.Context(), req.Email); err != nil {
		h.logger.Error("password reset request failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "request failed")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "if the email exists, a reset code has been sent",
	})
}

// VerifyOTPRequest represents a code verification request.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyOTP spends one attempt checking a submitted code.
// POST /user/verify-otp
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "email and code are required")
		return
	}

	if err := h.recovery.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, domain.ErrOTPExpired):
			httputil.Error(w, http.StatusBadRequest, "verification code expired. please request a new one")
		case errors.Is(err, domain.ErrTooManyAttempts):
			httputil.Error(w, http.StatusBadRequest, "too many incorrect attempts. please request a new code")
		case errors.Is(err, domain.ErrOTPIncorrect):
			httputil.Error(w, http.StatusBadRequest, "incorrect verification code")
		default:
			h.logger.Error("otp verification failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword performs the single password reset a verified code
// authorizes.
// POST /user/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "email and newPassword are required")
		return
	}

	if err := h.recovery.ChangePassword(r.Context(), req.Email, req.NewPassword); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": ve.Violations,
			})
			return
		}
		if errors.Is(err, domain.ErrNotAuthorized) {
			httputil.Error(w, http.StatusUnauthorized, "password change not authorized. please verify a reset code first")
			return
		}
		h.logger.Error("password change failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "password change failed")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password changed successfully",
	})
}
