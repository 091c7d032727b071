package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/pkg/middleware"
)

type ConversationsHandler struct {
	membershipSvc services.IMembershipService
	messageSvc    services.IMessageService
}

func NewConversationsHandler(membershipSvc services.IMembershipService, messageSvc services.IMessageService) *ConversationsHandler {
	return &ConversationsHandler{
		membershipSvc: membershipSvc,
		messageSvc:    messageSvc,
	}
}

// LinkDirect opens (or re-opens) the one conversation between the
// caller and the named peer and returns its ID.
func (h *ConversationsHandler) LinkDirect(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		PeerUID string `json:"peer_uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	convID, err := h.membershipSvc.LinkDirect(r.Context(), uid, req.PeerUID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "conversations handler - link direct failed", "uid", uid, "peer", req.PeerUID, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"conversation_id": convID})
}

// MarkRead flips peer-sent records read up to the given sequence.
func (h *ConversationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID := r.PathValue("cid")
	var req struct {
		UpToSeq int64 `json:"up_to_seq"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.messageSvc.MarkRead(r.Context(), uid, convID, req.UpToSeq); err != nil {
		if errors.Is(err, domain.ErrNotParticipant) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		log.ErrorContext(r.Context(), "conversations handler - mark read failed", "conv_id", convID, "uid", uid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditMessage replaces the text of the caller's own text message.
func (h *ConversationsHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID := r.PathValue("cid")
	msgID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.messageSvc.Edit(r.Context(), uid, convID, msgID, req.Body); err != nil {
		h.writeMutationError(w, r, log, "edit", convID, uid, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMessage removes the caller's own message from the log.
func (h *ConversationsHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	convID := r.PathValue("cid")
	msgID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	if err := h.messageSvc.Delete(r.Context(), uid, convID, msgID); err != nil {
		h.writeMutationError(w, r, log, "delete", convID, uid, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationsHandler) writeMutationError(w http.ResponseWriter, r *http.Request, log *slog.Logger, op, convID, uid string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotSender):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotTextMessage), errors.Is(err, domain.ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.ErrorContext(r.Context(), "conversations handler - "+op+" message failed", "conv_id", convID, "uid", uid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
