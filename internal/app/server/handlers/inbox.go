package handlers

import (
	"encoding/json"
	"net/http"

	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/pkg/middleware"
)

type InboxHandler struct {
	inboxSvc services.IInboxService
}

func NewInboxHandler(inboxSvc services.IInboxService) *InboxHandler {
	return &InboxHandler{inboxSvc: inboxSvc}
}

// List returns the caller's conversation rows, newest activity first.
// An optional ?q= narrows by title.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	rows, err := h.inboxSvc.BuildInbox(r.Context(), uid)
	if err != nil {
		log.ErrorContext(r.Context(), "inbox handler - build failed", "uid", uid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rows = services.FilterRows(rows, r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"conversations": rows})
}
