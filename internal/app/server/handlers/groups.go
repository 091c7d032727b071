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

type GroupsHandler struct {
	membershipSvc services.IMembershipService
}

func NewGroupsHandler(membershipSvc services.IMembershipService) *GroupsHandler {
	return &GroupsHandler{membershipSvc: membershipSvc}
}

// Create makes a new group with the caller as admin. The member list
// need not repeat the caller.
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name       string   `json:"name"`
		AvatarURL  string   `json:"avatar_url"`
		MemberUIDs []string `json:"member_uids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	group, err := h.membershipSvc.CreateGroup(r.Context(), uid, req.MemberUIDs, req.Name, req.AvatarURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyGroupName),
			errors.Is(err, domain.ErrMissingGroupAvatar),
			errors.Is(err, domain.ErrNoGroupMembers),
			errors.Is(err, domain.ErrInvalidUserID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.ErrorContext(r.Context(), "groups handler - create failed", "admin", uid, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(group)
}

// Get returns one group's detail, members included. Non-members get 403.
func (h *GroupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID := r.PathValue("id")
	group, err := h.membershipSvc.GetGroup(r.Context(), convID)
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.ErrorContext(r.Context(), "groups handler - get failed", "conv_id", convID, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	member := false
	for _, m := range group.MemberUIDs {
		if m == uid {
			member = true
			break
		}
	}
	if !member {
		http.Error(w, domain.ErrNotParticipant.Error(), http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(group)
}
