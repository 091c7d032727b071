package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type IMessageService interface {
	// AcceptMessage validates the frame and parks it on the
	// conversation's stream, acking the sender with the single tick.
	AcceptMessage(ctx context.Context, sender *domain.UserProfile, conversationID string, frame domain.ClientFrame) (domain.PendingMessage, error)
	// SaveAndBroadcast runs the atomic sequence+insert+membership
	// transaction, then broadcasts the record and the double tick.
	SaveAndBroadcast(ctx context.Context, payload *domain.PendingMessage) error
	// History replays the full log in append order.
	History(ctx context.Context, conversationID string) ([]domain.Message, error)
	// Edit replaces the text of the actor's own text message.
	Edit(ctx context.Context, actorID, conversationID string, messageID uuid.UUID, newText string) error
	// Delete removes the actor's own message and tells observers to
	// drop it.
	Delete(ctx context.Context, actorID, conversationID string, messageID uuid.UUID) error
	// MarkRead flips peer-sent records read up to upToSeq. Idempotent;
	// never unreads.
	MarkRead(ctx context.Context, readerID, conversationID string, upToSeq int64) error
}

type MessageService struct {
	log        *slog.Logger
	queue      contracts.MessageQueue
	registry   contracts.Registry
	repo       domain.MessageRepository
	membership domain.MembershipRepository
	groups     domain.GroupRepository
	txManager  contracts.TxManager
}

func NewMessageService(
	log *slog.Logger,
	queue contracts.MessageQueue,
	registry contracts.Registry,
	repo domain.MessageRepository,
	membership domain.MembershipRepository,
	groups domain.GroupRepository,
	txManager contracts.TxManager,
) *MessageService {
	return &MessageService{
		log:        log,
		queue:      queue,
		registry:   registry,
		repo:       repo,
		membership: membership,
		groups:     groups,
		txManager:  txManager,
	}
}

func (s *MessageService) AcceptMessage(
	ctx context.Context,
	sender *domain.UserProfile,
	conversationID string,
	frame domain.ClientFrame,
) (domain.PendingMessage, error) {
	probe := domain.NewMessage(conversationID, sender, frame.Kind, frame.Body, frame.MediaURL, frame.Caption)
	if err := probe.Validate(); err != nil {
		return domain.PendingMessage{}, err
	}
	pending := domain.PendingMessage{
		ClientMsgID:    frame.ClientMsgID,
		ConversationID: conversationID,
		SenderID:       sender.UID,
		SenderName:     sender.DisplayName,
		SenderAvatar:   sender.PhotoURL,
		Kind:           frame.Kind,
		Body:           frame.Body,
		MediaURL:       frame.MediaURL,
		Caption:        frame.Caption,
		CreatedAt:      time.Now(),
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return domain.PendingMessage{}, err
	}
	if err := s.queue.PublishToStream(ctx, conversationID, raw); err != nil {
		s.log.ErrorContext(ctx, "messages - accept message - publish to stream failed", "stream", conversationID, "err", err)
		return domain.PendingMessage{}, err
	}
	// Single tick (only to sender)
	s.registry.SendAck(ctx, sender.UID, domain.AckMessage{
		Type:        domain.TypeAck,
		ClientMsgID: frame.ClientMsgID,
		Status:      domain.AckServerReceived,
		Timestamp:   time.Now(),
	})
	return pending, nil
}

// SaveAndBroadcast commits the log append and the membership
// last-message refresh in one transaction, so the inbox projection can
// never lag behind the log on a committed send.
func (s *MessageService) SaveAndBroadcast(ctx context.Context, payload *domain.PendingMessage) error {
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: payload.ConversationID,
		SenderID:       payload.SenderID,
		SenderName:     payload.SenderName,
		SenderAvatar:   payload.SenderAvatar,
		Kind:           payload.Kind,
		Body:           payload.Body,
		MediaURL:       payload.MediaURL,
		Caption:        payload.Caption,
		SentAt:         payload.CreatedAt,
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	// Group IDs don't split into two participants; only direct
	// conversations carry the connected-users projection.
	peerUID, peerErr := domain.OtherParticipant(msg.ConversationID, msg.SenderID)

	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.SaveWithSequence(txCtx, msg); err != nil {
			return err
		}
		if peerErr != nil {
			return nil
		}
		preview := msg.Preview()
		if err := s.membership.RefreshLastMessage(txCtx, msg.SenderID, peerUID, preview, msg.SentAt); err != nil {
			return err
		}
		return s.membership.RefreshLastMessage(txCtx, peerUID, msg.SenderID, preview, msg.SentAt)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "messages - save and broadcast - transaction failed", "conv_id", msg.ConversationID, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "messages - save and broadcast - success", "conv_id", msg.ConversationID, "seq", msg.Seq, "sender_id", msg.SenderID)

	s.registry.Broadcast(ctx, msg.ConversationID, domain.WireMessage(msg))
	// Double tick (only to sender)
	s.registry.SendAck(ctx, msg.SenderID, domain.AckMessage{
		Type:        domain.TypeAck,
		ClientMsgID: payload.ClientMsgID,
		Status:      domain.AckPersisted,
		Seq:         msg.Seq,
		Timestamp:   time.Now(),
	})
	return nil
}

func (s *MessageService) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - history - list failed", "conv_id", conversationID, "err", err)
		return nil, err
	}
	return msgs, nil
}

func (s *MessageService) Edit(
	ctx context.Context,
	actorID, conversationID string,
	messageID uuid.UUID,
	newText string,
) error {
	if newText == "" {
		return domain.ErrEmptyMessage
	}
	msg, err := s.repo.GetMessage(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	// Authorization lives here, not in the UI layer.
	if msg.SenderID != actorID {
		return domain.ErrNotSender
	}
	if msg.Kind != domain.KindText {
		return domain.ErrNotTextMessage
	}
	if err := s.repo.UpdateText(ctx, conversationID, messageID, newText); err != nil {
		s.log.ErrorContext(ctx, "messages - edit - update failed", "conv_id", conversationID, "message_id", messageID, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "messages - edit - success", "conv_id", conversationID, "message_id", messageID)
	s.registry.Publish(ctx, conversationID, domain.EditedEvent{
		Type:           domain.TypeEdited,
		ConversationID: conversationID,
		MessageID:      messageID,
		Body:           newText,
	})
	return nil
}

func (s *MessageService) Delete(
	ctx context.Context,
	actorID, conversationID string,
	messageID uuid.UUID,
) error {
	msg, err := s.repo.GetMessage(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return domain.ErrNotSender
	}
	if err := s.repo.Delete(ctx, conversationID, messageID); err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			// Raced with another delete; observers already got the event.
			return nil
		}
		s.log.ErrorContext(ctx, "messages - delete - failed", "conv_id", conversationID, "message_id", messageID, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "messages - delete - success", "conv_id", conversationID, "message_id", messageID)
	s.registry.Publish(ctx, conversationID, domain.DeletedEvent{
		Type:           domain.TypeDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
	})
	return nil
}

func (s *MessageService) MarkRead(
	ctx context.Context,
	readerID, conversationID string,
	upToSeq int64,
) error {
	// Only a participant may flip read state; the room is told about it.
	_, err := domain.OtherParticipant(conversationID, readerID)
	switch {
	case err == nil:
		// Direct conversation and the reader is one of the pair.
	case errors.Is(err, domain.ErrNotParticipant):
		return err
	default:
		// Not shaped like a direct ID; must be a group the reader belongs to.
		member, err := s.groups.IsMember(ctx, conversationID, readerID)
		if err != nil {
			s.log.ErrorContext(ctx, "messages - mark read - member lookup failed", "conv_id", conversationID, "reader_id", readerID, "err", err)
			return err
		}
		if !member {
			return domain.ErrNotParticipant
		}
	}

	flipped, err := s.repo.MarkRead(ctx, conversationID, readerID, upToSeq)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - mark read - failed", "conv_id", conversationID, "reader_id", readerID, "err", err)
		return err
	}
	if flipped == 0 {
		// Nothing new to flip; repeat calls land here.
		return nil
	}
	s.log.InfoContext(ctx, "messages - mark read - success", "conv_id", conversationID, "reader_id", readerID, "flipped", flipped)
	s.registry.Publish(ctx, conversationID, domain.ReadEvent{
		Type:           domain.TypeRead,
		ConversationID: conversationID,
		ReaderID:       readerID,
		UpToSeq:        upToSeq,
	})
	return nil
}
