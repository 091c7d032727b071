package domain

import (
	"strconv"
	"strings"
	"time"
)

// Separator between the two sorted UIDs of a direct conversation ID.
const conversationIDSeparator = "_"

// DirectConversationID derives the stable key of a pair chat: the two
// UIDs sorted lexicographically and joined with "_". Symmetric in its
// arguments, so both clients arrive at the same log without coordination.
// UIDs must be non-empty and must not contain the separator, otherwise
// the key could not be split back into its participants.
func DirectConversationID(userA, userB string) (string, error) {
	if userA == "" || userB == "" {
		return "", ErrInvalidUserID
	}
	if strings.Contains(userA, conversationIDSeparator) || strings.Contains(userB, conversationIDSeparator) {
		return "", ErrInvalidUserID
	}
	if userA == userB {
		return "", ErrInvalidUserID
	}
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + conversationIDSeparator + userB, nil
}

// OtherParticipant recovers the peer UID from a direct conversation ID.
// Fails on IDs that do not split into exactly two non-empty parts, and
// when self is not one of the participants.
func OtherParticipant(conversationID, selfUID string) (string, error) {
	parts := strings.Split(conversationID, conversationIDSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedConversationID
	}
	switch selfUID {
	case parts[0]:
		return parts[1], nil
	case parts[1]:
		return parts[0], nil
	}
	return "", ErrNotParticipant
}

// GroupConversationID mints the opaque handle of a new group chat:
// creator UID plus the creation time in epoch milliseconds. Not
// idempotent; callers mint once and persist the value everywhere the
// group is referenced. The creator UID must not contain the separator,
// otherwise the minted handle would split like a direct ID.
func GroupConversationID(creatorUID string) (string, error) {
	if creatorUID == "" || strings.Contains(creatorUID, conversationIDSeparator) {
		return "", ErrInvalidUserID
	}
	return creatorUID + strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}
