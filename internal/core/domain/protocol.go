package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeHandshake = "handshake"
	TypeMessage   = "message"
	TypeAck       = "ack"
	TypeEdited    = "edited"
	TypeDeleted   = "deleted"
	TypeRead      = "read"
	TypePresence  = "presence"
	TypeError     = "error"
)

type AckStatus string

const (
	AckServerReceived AckStatus = "server_received"
	AckPersisted      AckStatus = "persisted"
)

// HandshakeResponse is sent once on connect, before history replay.
type HandshakeResponse struct {
	Type           string `json:"type"` // "handshake"
	ConversationID string `json:"conversation_id"`
	History        int    `json:"history"` // number of records about to be replayed
}

// ClientFrame is the inbound send request read off the socket.
type ClientFrame struct {
	ClientMsgID string      `json:"client_msg_id"`
	Kind        MessageKind `json:"kind"`
	Body        string      `json:"body,omitempty"`
	MediaURL    string      `json:"media_url,omitempty"`
	Caption     string      `json:"caption,omitempty"`
}

// PendingMessage is the validated payload parked on the stream between
// ingest and the persistence worker.
type PendingMessage struct {
	ClientMsgID    string      `json:"client_msg_id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name"`
	SenderAvatar   string      `json:"sender_avatar,omitempty"`
	Kind           MessageKind `json:"kind"`
	Body           string      `json:"body,omitempty"`
	MediaURL       string      `json:"media_url,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ChatMessage is the record shape broadcast to room subscribers, both
// during replay and live.
type ChatMessage struct {
	Type           string      `json:"type"` // "message"
	ConversationID string      `json:"conversation_id"`
	MessageID      uuid.UUID   `json:"message_id"`
	Seq            int64       `json:"seq"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name"`
	SenderAvatar   string      `json:"sender_avatar,omitempty"`
	Kind           MessageKind `json:"kind"`
	Body           string      `json:"body,omitempty"`
	MediaURL       string      `json:"media_url,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	Read           bool        `json:"read"`
	SentAt         time.Time   `json:"sent_at"`
}

// WireMessage converts a log record to its broadcast shape.
func WireMessage(m *Message) ChatMessage {
	return ChatMessage{
		Type:           TypeMessage,
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		Seq:            m.Seq,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderAvatar:   m.SenderAvatar,
		Kind:           m.Kind,
		Body:           m.Body,
		MediaURL:       m.MediaURL,
		Caption:        m.Caption,
		Read:           m.Read,
		SentAt:         m.SentAt,
	}
}

// AckMessage is sent only to the sender: single tick on stream accept,
// double tick after the persistence transaction commits.
type AckMessage struct {
	Type        string    `json:"type"` // always "ack"
	ClientMsgID string    `json:"client_msg_id"`
	Status      AckStatus `json:"status"`
	Seq         int64     `json:"seq,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// EditedEvent tells subscribers to replace a record's text in place.
type EditedEvent struct {
	Type           string    `json:"type"` // "edited"
	ConversationID string    `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	Body           string    `json:"body"`
}

// DeletedEvent tells subscribers holding a snapshot to drop the record.
type DeletedEvent struct {
	Type           string    `json:"type"` // "deleted"
	ConversationID string    `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
}

// ReadEvent announces that the reader has consumed the log up to UpToSeq.
type ReadEvent struct {
	Type           string `json:"type"` // "read"
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
	UpToSeq        int64  `json:"up_to_seq"`
}

// PresenceEvent is pushed to the room on heartbeat ticks.
type PresenceEvent struct {
	Type           string   `json:"type"` // "presence"
	ConversationID string   `json:"conversation_id"`
	Online         []string `json:"online_user_ids"`
}

// ErrorMessage is the WS-safe error frame.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
