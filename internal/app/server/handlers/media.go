package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/pkg/middleware"
)

const maxUploadBytes = 20 << 20 // images and short voice notes

type MediaHandler struct {
	mediaSvc services.IMediaService
}

func NewMediaHandler(mediaSvc services.IMediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// Upload stores one blob and returns its public URL. Query params pick
// the destination: ?kind=avatar, or ?kind=image|audio&conv_id=...
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	uid, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	var url string
	switch kind := r.URL.Query().Get("kind"); kind {
	case "avatar":
		url, err = h.mediaSvc.UploadAvatar(r.Context(), uid, contentType, data)
	case "image":
		url, err = h.mediaSvc.UploadAttachment(r.Context(), r.URL.Query().Get("conv_id"), domain.KindImage, contentType, data)
	case "audio":
		url, err = h.mediaSvc.UploadAttachment(r.Context(), r.URL.Query().Get("conv_id"), domain.KindAudio, contentType, data)
	default:
		http.Error(w, "unknown upload kind", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidConversationID) || errors.Is(err, domain.ErrUnknownMessageKind) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.ErrorContext(r.Context(), "media handler - upload failed", "uid", uid, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}
