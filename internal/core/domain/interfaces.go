package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileRepository handles the persistent identity records.
type ProfileRepository interface {
	// CreateProfile inserts a new record; ErrProfileExists on conflict.
	// The register path treats the conflict as fatal.
	CreateProfile(ctx context.Context, p *UserProfile) error
	// EnsureProfile inserts or returns the existing record. Used on the
	// social-login link path where a pre-existing profile is fine.
	EnsureProfile(ctx context.Context, p *UserProfile) (*UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*UserProfile, error)
	// ListProfiles enumerates the user directory for the "start a chat" view.
	ListProfiles(ctx context.Context) ([]UserProfile, error)
	UpdateLocation(ctx context.Context, uid string, loc GeoPoint) error
}

// ConversationRepository handles conversation lifecycle. Creation is
// idempotent and initializes the per-conversation sequence row in the
// same statement batch.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, id string, kind ConversationKind) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
}

// MessageRepository handles persistence and guaranteed ordering of the
// append-only per-conversation log.
type MessageRepository interface {
	// SaveWithSequence increments the conversation sequence and inserts
	// the record in one transaction, returning the assigned Seq.
	SaveWithSequence(ctx context.Context, msg *Message) (int64, error)
	// ListMessages replays the full log in Seq order.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	GetMessage(ctx context.Context, conversationID string, id uuid.UUID) (*Message, error)
	// UpdateText replaces the body of a text record in place.
	UpdateText(ctx context.Context, conversationID string, id uuid.UUID, text string) error
	Delete(ctx context.Context, conversationID string, id uuid.UUID) error
	// MarkRead flips unread records not sent by readerID up to and
	// including upToSeq. Returns the number of rows flipped; idempotent.
	MarkRead(ctx context.Context, conversationID, readerID string, upToSeq int64) (int64, error)
	// LastMessage is the tail read used by group inbox rows.
	LastMessage(ctx context.Context, conversationID string) (*Message, error)
	HasUnread(ctx context.Context, conversationID, readerID string) (bool, error)
}

// MembershipRepository handles the per-user "connected users" index for
// direct chats. Entries are upserted symmetrically on both owners.
type MembershipRepository interface {
	UpsertPeer(ctx context.Context, entry *DirectPeerEntry) error
	RefreshLastMessage(ctx context.Context, ownerUID, peerUID, preview string, at time.Time) error
	ListPeers(ctx context.Context, ownerUID string) ([]DirectPeerEntry, error)
}

// GroupRepository handles group records and membership rows. The member
// rows double as the per-user reverse index, so the two views cannot
// disagree.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g *Group) error
	AddMember(ctx context.Context, conversationID, memberUID string) error
	GetGroup(ctx context.Context, conversationID string) (*Group, error)
	ListGroups(ctx context.Context, memberUID string) ([]Group, error)
	IsMember(ctx context.Context, conversationID, uid string) (bool, error)
}
