package contracts

import (
	"context"
	"time"
)

// PresenceStore tracks which users are currently active in a
// conversation, one ZSET per conversation with timestamp scores.
type PresenceStore interface {
	// CheckIn refreshes the user's activity timestamp.
	CheckIn(ctx context.Context, conversationID, userID string, ttl time.Duration) error
	// CheckOut removes the user immediately instead of waiting for
	// their last check-in to age out.
	CheckOut(ctx context.Context, conversationID, userID string) error
	// OnlineUsers lists users active within the store's freshness window.
	OnlineUsers(ctx context.Context, conversationID string) ([]string, error)
	// ClearConversation drops the conversation's presence set.
	ClearConversation(ctx context.Context, conversationID string) error
}
