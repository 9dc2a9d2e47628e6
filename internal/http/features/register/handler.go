package register

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notely/identity/internal/httputil"
	"github.com/notely/identity/pkg/auth"
	"github.com/notely/identity/pkg/domain"
)

// Handler handles the registration endpoint.
type Handler struct {
	logger       *slog.Logger
	registration *auth.RegistrationService
}

// NewHandler creates a new registration handler.
func NewHandler(logger *slog.Logger, registration *auth.RegistrationService) *Handler {
	return &Handler{logger: logger, registration: registration}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration.
// POST /user/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.registration.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": ve.Violations,
			})
			return
		}
		if errors.Is(err, domain.ErrEmailTaken) {
			httputil.JSON(w, http.StatusConflict, map[string]string{
				"field": "email",
				"error": "email already registered",
			})
			return
		}
		if errors.Is(err, domain.ErrUsernameTaken) {
			httputil.JSON(w, http.StatusConflict, map[string]string{
				"field": "username",
				"error": "username already taken",
			})
			return
		}
		h.logger.Error("registration failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	httputil.JSON(w, http.StatusCreated, map[string]interface{}{
		"userId": user.ID,
	})
}
