package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
)

type AuthHandler struct {
	profileSvc services.IProfileService
	tokenSvc   *services.TokenService
}

func NewAuthHandler(p services.IProfileService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{profileSvc: p, tokenSvc: t}
}

type authRequest struct {
	IDToken string `json:"id_token"`
}

// Register exchanges a verified identity token for a fresh profile plus
// a session JWT. Re-registering an existing UID is a conflict.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		log.ErrorContext(r.Context(), "auth handler - register - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	profile, err := h.profileSvc.Register(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, domain.ErrProfileExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.ErrorContext(r.Context(), "auth handler - register - failed", "err", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, r, profile)
}

// Login exchanges a verified identity token for the existing profile
// (created on the fly for first social logins) plus a session JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		log.ErrorContext(r.Context(), "auth handler - login - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	profile, err := h.profileSvc.Login(r.Context(), req.IDToken)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - failed", "err", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, r, profile)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, profile *domain.UserProfile) {
	log := logger.FromContext(r.Context())
	token, err := h.tokenSvc.GenerateToken(profile.UID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "uid", profile.UID)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":   token,
		"profile": profile,
	})
	log.InfoContext(r.Context(), "auth handler - token send success", "uid", profile.UID)
}
