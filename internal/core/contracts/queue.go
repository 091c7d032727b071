package contracts

import "context"

// MessageQueue is the durable hand-off between message ingest and the
// persistence worker, one stream per conversation.
type MessageQueue interface {
	// PublishToStream appends a raw payload to the conversation's stream.
	PublishToStream(ctx context.Context, conversationID string, payload []byte) error
	// SubscribeToStream reads the stream through a consumer group and
	// feeds each entry to handler until ctx is cancelled.
	SubscribeToStream(ctx context.Context, conversationID, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// AcknowledgeMessage marks a stream entry as processed.
	AcknowledgeMessage(ctx context.Context, conversationID, group, messageID string) error
	// DeleteMessage trims a processed entry from the stream.
	DeleteMessage(ctx context.Context, conversationID, messageID string) error
	// DeleteStream drops the whole stream once the room is gone.
	DeleteStream(ctx context.Context, conversationID string) error
}
