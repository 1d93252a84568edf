package api

import (
	"net/http"

	"github.com/notifyd/notifyd/internal/auth"
)

// AuthHandler handles operator authentication endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeJSON[auth.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.authService.Login(input.Username, input.Password)
	if err != nil {
		sendError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return
	}

	sendJSON(w, http.StatusOK, resp)
}
