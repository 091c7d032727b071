package contracts

import (
	"context"

	"chatsync/internal/core/domain"
)

// Registry is the orchestration layer that owns the physical client
// connections and fans events out to the per-conversation rooms.
type Registry interface {
	// Register adds a client to the local node memory and joins it to
	// its conversation room.
	Register(c Client)
	// Unregister removes the client and cleans up the room when empty.
	Unregister(c Client)
	// SendAck targets one local client with a delivery confirmation.
	SendAck(ctx context.Context, userID string, ack domain.AckMessage)
	// Broadcast sends a new record to every room member except the sender.
	Broadcast(ctx context.Context, conversationID string, msg domain.ChatMessage)
	// Publish sends a control event (edit/delete/read/presence) to every
	// room member including its originator.
	Publish(ctx context.Context, conversationID string, event any)
}

// Client is the minimal surface the Registry needs to talk to one
// WebSocket connection.
type Client interface {
	UserID() string
	ConversationID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
