package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/sinowatch/sinowatch/internal/auth"
)

// AuthHandler issues admin session tokens.
type AuthHandler struct {
	cfg    auth.Config
	logger *slog.Logger
}

// NewAuthHandler builds the login handler.
func NewAuthHandler(cfg auth.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.cfg.Enabled() {
		http.Error(w, "admin access not configured", http.StatusUnauthorized)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !auth.CheckPassword(req.Password, h.cfg.AdminPasswordHash) {
		h.logger.Warn("admin login rejected", "remote", r.RemoteAddr)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken("admin", h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		h.logger.Error("failed to sign admin token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
