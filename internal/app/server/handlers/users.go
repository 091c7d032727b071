package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/pkg/middleware"
)

type UsersHandler struct {
	profileSvc services.IProfileService
}

func NewUsersHandler(profileSvc services.IProfileService) *UsersHandler {
	return &UsersHandler{profileSvc: profileSvc}
}

// List returns the user directory the contacts screen is built from.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	profiles, err := h.profileSvc.ListProfiles(r.Context())
	if err != nil {
		log.ErrorContext(r.Context(), "users handler - list failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"users": profiles})
}

// UpdateLocation stores the caller's last known coordinates.
func (h *UsersHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var loc domain.GeoPoint
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.profileSvc.UpdateLocation(r.Context(), uid, loc); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.ErrorContext(r.Context(), "users handler - update location failed", "uid", uid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
