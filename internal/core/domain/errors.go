package domain

import "errors"

var (
	ErrInvalidUserID           = errors.New("invalid user id")
	ErrInvalidConversationID   = errors.New("invalid conversation id")
	ErrMalformedConversationID = errors.New("malformed conversation id")
	ErrNotParticipant          = errors.New("user is not a participant")
	ErrProfileExists           = errors.New("profile already exists")
	ErrProfileNotFound         = errors.New("profile not found")
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrSequenceNotInitialized  = errors.New("conversation sequence not initialized")
	ErrMessageNotFound         = errors.New("message not found")
	ErrGroupNotFound           = errors.New("group not found")
	ErrNotSender               = errors.New("actor is not the message sender")
	ErrNotTextMessage          = errors.New("only text messages can be edited")
	ErrEmptyMessage            = errors.New("message text cannot be empty")
	ErrMissingMediaURL         = errors.New("media message needs an upload url")
	ErrUnknownMessageKind      = errors.New("unknown message kind")
	ErrEmptyGroupName          = errors.New("group name cannot be empty")
	ErrMissingGroupAvatar      = errors.New("group avatar is required")
	ErrNoGroupMembers          = errors.New("group needs at least one member")
	ErrCorruptRecord           = errors.New("corrupt message record")
)
