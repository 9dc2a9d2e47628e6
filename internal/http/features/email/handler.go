package email

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notely/identity/internal/http/middleware"
	"github.com/notely/identity/internal/httputil"
	"github.com/notely/identity/pkg/auth"
	"github.com/notely/identity/pkg/domain"
)

// Handler handles email verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification *auth.VerificationService
}

// NewHandler creates a new email verification handler.
func NewHandler(logger *slog.Logger, verification *auth.VerificationService) *Handler {
	return &Handler{logger: logger, verification: verification}
}

// VerifyEmail consumes a verification token presented as a bearer
// credential (the email link carries it; the frontend forwards it in
// the Authorization header).
// POST /user/verify
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "verification token is required")
		return
	}

	if err := h.verification.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			httputil.Error(w, http.StatusBadRequest, "verification link expired")
			return
		}
		if errors.Is(err, domain.ErrTokenInvalid) {
			httputil.Error(w, http.StatusBadRequest, "invalid verification token")
			return
		}
		h.logger.Error("email verification failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "email verified successfully",
	})
}

// ResendRequest represents a resend-verification request.
type ResendRequest struct {
	Email string `json:"email"`
}

// ResendVerification issues a fresh verification email. Responds 200
// regardless of whether the address maps to an account.
// POST /user/resend-verification
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.verification.ResendVerification(r.Context(), req.Email); err != nil {
		h.logger.Error("resend verification failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "request failed")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
