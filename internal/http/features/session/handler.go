package session

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

// Handler handles login and session endpoints.
type Handler struct {
	logger       *slog.Logger
	login        *auth.LoginService
	cookieConfig httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, login *auth.LoginService) *Handler {
	return &Handler{
		logger:       logger,
		login:        login,
		cookieConfig: httputil.DefaultCookieConfig(),
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login. A missing account and a wrong password get
// the same response.
// POST /user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if errors.Is(err, domain.ErrEmailNotVerified) {
			httputil.Error(w, http.StatusForbidden, "email verification required. please check your email for the verification link")
			return
		}
		h.logger.Error("login failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	httputil.SetSessionCookie(w, token, h.login.SessionTTL(), h.cookieConfig)
	httputil.JSON(w, http.StatusOK, map[string]string{
		"sessionToken": token,
	})
}

// Logout clears the session cookie.
// POST /user/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.ClearSessionCookie(w, h.cookieConfig)
	httputil.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Me returns the authenticated user's profile claims. Requires the
// Auth middleware.
// GET /user/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"userId":   claims.Subject,
		"email":    claims.Email,
		"username": claims.Username,
	})
}
