package contracts

import "context"

// AsyncWorker consumes a conversation's stream and drives the atomic
// persist-and-broadcast step for each pending message.
type AsyncWorker interface {
	// Run starts the consumer loop for one conversation.
	Run(ctx context.Context, conversationID string) error
	// ProcessMessage persists one stream entry, broadcasts it, then
	// acknowledges and trims the entry.
	ProcessMessage(ctx context.Context, conversationID, messageID string, raw []byte) error
}
