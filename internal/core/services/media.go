package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type IMediaService interface {
	// UploadAvatar stores a profile or group avatar and returns its URL.
	UploadAvatar(ctx context.Context, ownerUID, contentType string, data []byte) (string, error)
	// UploadAttachment stores an image or voice blob for a message.
	UploadAttachment(ctx context.Context, conversationID string, kind domain.MessageKind, contentType string, data []byte) (string, error)
}

type MediaService struct {
	log   *slog.Logger
	store contracts.MediaStore
}

func NewMediaService(log *slog.Logger, store contracts.MediaStore) *MediaService {
	return &MediaService{log: log, store: store}
}

func (s *MediaService) UploadAvatar(ctx context.Context, ownerUID, contentType string, data []byte) (string, error) {
	if ownerUID == "" {
		return "", domain.ErrInvalidUserID
	}
	key := fmt.Sprintf("avatars/%s/%s", ownerUID, uuid.NewString())
	url, err := s.store.Upload(ctx, key, contentType, data)
	if err != nil {
		s.log.ErrorContext(ctx, "media - upload avatar - failed", "owner", ownerUID, "err", err)
		return "", err
	}
	s.log.InfoContext(ctx, "media - upload avatar - success", "owner", ownerUID, "key", key)
	return url, nil
}

func (s *MediaService) UploadAttachment(ctx context.Context, conversationID string, kind domain.MessageKind, contentType string, data []byte) (string, error) {
	if conversationID == "" {
		return "", domain.ErrInvalidConversationID
	}
	var prefix string
	switch kind {
	case domain.KindImage:
		prefix = "images"
	case domain.KindAudio:
		prefix = "audio"
	default:
		return "", domain.ErrUnknownMessageKind
	}
	key := fmt.Sprintf("%s/%s/%s", prefix, conversationID, uuid.NewString())
	url, err := s.store.Upload(ctx, key, contentType, data)
	if err != nil {
		s.log.ErrorContext(ctx, "media - upload attachment - failed", "conv_id", conversationID, "err", err)
		return "", err
	}
	s.log.InfoContext(ctx, "media - upload attachment - success", "conv_id", conversationID, "key", key)
	return url, nil
}
