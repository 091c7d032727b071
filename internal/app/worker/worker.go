package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
)

// ConversationWorker drains one conversation's stream and drives the
// persist-and-broadcast step for every pending message.
type ConversationWorker struct {
	log      *slog.Logger
	queue    contracts.MessageQueue
	messages services.IMessageService
	conGroup string
}

func NewConversationWorker(
	log *slog.Logger,
	queue contracts.MessageQueue,
	messages services.IMessageService,
	conGroup string,
) contracts.AsyncWorker {
	return &ConversationWorker{
		log:      log,
		queue:    queue,
		messages: messages,
		conGroup: conGroup,
	}
}

func (w *ConversationWorker) Run(ctx context.Context, convID string) error {
	handle := func(ctx context.Context, messageID string, raw []byte) error {
		return w.ProcessMessage(ctx, convID, messageID, raw)
	}
	if err := w.queue.SubscribeToStream(ctx, convID, w.conGroup, handle); err != nil {
		w.log.ErrorContext(ctx, "worker - run - subscribe to stream failed", "topic", convID, "group", w.conGroup, "err", err)
		return err
	}
	w.log.InfoContext(ctx, "worker - run - subscribe to stream success", "topic", convID, "group", w.conGroup)
	return nil
}

func (w *ConversationWorker) ProcessMessage(
	ctx context.Context,
	convID, messageID string,
	raw []byte,
) error {
	var payload domain.PendingMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A poisoned entry would sit in the pending list forever; ack it
		// away so the stream keeps moving.
		w.log.ErrorContext(ctx, "worker - process message - corrupt payload dropped", "message_id", messageID, "err", err)
		if ackErr := w.queue.AcknowledgeMessage(ctx, convID, w.conGroup, messageID); ackErr != nil {
			w.log.ErrorContext(ctx, "worker - process message - acknowledge corrupt payload failed", "message_id", messageID, "err", ackErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if err := w.messages.SaveAndBroadcast(ctx, &payload); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - save and broadcast failed", "message_id", messageID, "err", err)
		return err
	}
	w.log.InfoContext(ctx, "worker - process message - save and broadcast success", "message_id", messageID)
	// The DB save is confirmed; XACK removes the entry from the
	// pending list, XDEL keeps the stream memory-efficient.
	if err := w.queue.AcknowledgeMessage(ctx, convID, w.conGroup, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - acknowledge message failed", "message_id", messageID, "err", err)
		return err
	}
	if err := w.queue.DeleteMessage(ctx, convID, messageID); err != nil {
		// Already processed and ACKed; trimming is best effort.
		w.log.ErrorContext(ctx, "worker - process message - delete message failed", "message_id", messageID, "err", err)
	}
	return nil
}
