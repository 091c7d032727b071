package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the persisted record behind an authenticated principal.
// Created on first successful authentication, never deleted.
type UserProfile struct {
	UID          string
	DisplayName  string
	Email        string
	PhotoURL     string
	RegisteredAt time.Time
	LastLocation *GeoPoint
}

// GeoPoint is the user's last reported location, fed by the map view.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// ConversationKind separates pair chats from group chats. The two kinds
// carry different membership records and different wire shapes.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// Conversation anchors one message log. The ID is the deterministic key
// produced by DirectConversationID or minted once by GroupConversationID.
type Conversation struct {
	ID        string
	Kind      ConversationKind
	CreatedAt time.Time
}

// MessageKind tags the payload variant of a message. Consumers switch
// exhaustively over these tags; new kinds extend the tag set instead of
// widening a shared record.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindAudio MessageKind = "audio"
)

// Message is one record of a conversation's append-only log. Seq is the
// per-conversation monotonic counter assigned at persist time; observers
// always see records in Seq order.
type Message struct {
	ID             uuid.UUID
	ConversationID string
	Seq            int64
	SenderID       string
	SenderName     string
	SenderAvatar   string
	Kind           MessageKind
	Body           string // text body; empty for image/audio
	MediaURL       string // opaque upload URL for image/audio kinds
	Caption        string // optional caption on image kind
	Read           bool
	SentAt         time.Time
}

// Preview renders the one-line inbox summary for a message.
func (m *Message) Preview() string {
	switch m.Kind {
	case KindText:
		return m.Body
	case KindImage:
		if m.Caption != "" {
			return m.Caption
		}
		return "Photo"
	case KindAudio:
		return "Voice message"
	}
	return ""
}

// Validate checks the kind/payload pairing before a record enters the log.
func (m *Message) Validate() error {
	if m.SenderID == "" {
		return ErrInvalidUserID
	}
	if m.ConversationID == "" {
		return ErrInvalidConversationID
	}
	switch m.Kind {
	case KindText:
		if m.Body == "" {
			return ErrEmptyMessage
		}
	case KindImage, KindAudio:
		if m.MediaURL == "" {
			return ErrMissingMediaURL
		}
	default:
		return ErrUnknownMessageKind
	}
	return nil
}

// DirectPeerEntry is the denormalized "connected user" row stored per
// owner. Both participants hold a mirror entry pointing at the same
// conversation; the last-message columns are refreshed on every send.
type DirectPeerEntry struct {
	OwnerUID       string
	PeerUID        string
	ConversationID string
	LastMessage    string
	LastMessageAt  time.Time
}

// Group is the membership/admin record of a group conversation.
// MemberUIDs includes the admin.
type Group struct {
	ConversationID string
	Name           string
	AdminUID       string
	AvatarURL      string
	MemberUIDs     []string
}

// InboxRow is one rendered line of the conversation list.
type InboxRow struct {
	ConversationID string           `json:"conversation_id"`
	Kind           ConversationKind `json:"kind"`
	Title          string           `json:"title"`
	AvatarURL      string           `json:"avatar_url,omitempty"`
	LastMessage    string           `json:"last_message"`
	LastMessageAt  time.Time        `json:"last_message_at"`
	Unread         bool             `json:"unread"`
}

// NewMessage stamps a fresh log record for the given sender profile.
// Seq and SentAt are overwritten by the repository at persist time.
func NewMessage(conversationID string, sender *UserProfile, kind MessageKind, body, mediaURL, caption string) *Message {
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender.UID,
		SenderName:     sender.DisplayName,
		SenderAvatar:   sender.PhotoURL,
		Kind:           kind,
		Body:           body,
		MediaURL:       mediaURL,
		Caption:        caption,
		SentAt:         time.Now(),
	}
}
