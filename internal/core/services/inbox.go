package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"chatsync/internal/core/domain"
)

type IInboxService interface {
	// BuildInbox produces the conversation-list rows for one user from
	// the materialized membership projections. No history replay.
	BuildInbox(ctx context.Context, uid string) ([]domain.InboxRow, error)
}

type InboxService struct {
	log      *slog.Logger
	profiles domain.ProfileRepository
	peers    domain.MembershipRepository
	groups   domain.GroupRepository
	messages domain.MessageRepository
}

func NewInboxService(
	log *slog.Logger,
	profiles domain.ProfileRepository,
	peers domain.MembershipRepository,
	groups domain.GroupRepository,
	messages domain.MessageRepository,
) *InboxService {
	return &InboxService{
		log:      log,
		profiles: profiles,
		peers:    peers,
		groups:   groups,
		messages: messages,
	}
}

func (s *InboxService) BuildInbox(ctx context.Context, uid string) ([]domain.InboxRow, error) {
	if uid == "" {
		return nil, domain.ErrInvalidUserID
	}
	entries, err := s.peers.ListPeers(ctx, uid)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListGroups(ctx, uid)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.InboxRow, 0, len(entries)+len(groups))
	for i := range entries {
		row, err := s.buildDirectRow(ctx, uid, &entries[i])
		if err != nil {
			// A dangling membership entry must not take down the whole
			// screen; log it and keep going.
			s.log.WarnContext(ctx, "inbox - build direct row - skipped", "conv_id", entries[i].ConversationID, "err", err)
			continue
		}
		rows = append(rows, row)
	}
	for i := range groups {
		row, err := s.buildGroupRow(ctx, uid, &groups[i])
		if err != nil {
			s.log.WarnContext(ctx, "inbox - build group row - skipped", "conv_id", groups[i].ConversationID, "err", err)
			continue
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastMessageAt.After(rows[j].LastMessageAt)
	})
	return rows, nil
}

// buildDirectRow joins the peer's profile with the entry's materialized
// last-message columns; only the unread flag touches the message store.
func (s *InboxService) buildDirectRow(ctx context.Context, uid string, entry *domain.DirectPeerEntry) (domain.InboxRow, error) {
	peer, err := s.profiles.GetProfile(ctx, entry.PeerUID)
	if err != nil {
		return domain.InboxRow{}, err
	}
	unread, err := s.messages.HasUnread(ctx, entry.ConversationID, uid)
	if err != nil {
		return domain.InboxRow{}, err
	}
	return domain.InboxRow{
		ConversationID: entry.ConversationID,
		Kind:           domain.ConversationDirect,
		Title:          peer.DisplayName,
		AvatarURL:      peer.PhotoURL,
		LastMessage:    entry.LastMessage,
		LastMessageAt:  entry.LastMessageAt,
		Unread:         unread,
	}, nil
}

// buildGroupRow tail-reads the group log for the preview; group chats
// carry no per-member materialized columns.
func (s *InboxService) buildGroupRow(ctx context.Context, uid string, group *domain.Group) (domain.InboxRow, error) {
	row := domain.InboxRow{
		ConversationID: group.ConversationID,
		Kind:           domain.ConversationGroup,
		Title:          group.Name,
		AvatarURL:      group.AvatarURL,
	}
	last, err := s.messages.LastMessage(ctx, group.ConversationID)
	switch {
	case err == nil:
		row.LastMessage = last.Preview()
		row.LastMessageAt = last.SentAt
	case errors.Is(err, domain.ErrMessageNotFound):
		// Fresh group, nothing sent yet
	default:
		return domain.InboxRow{}, err
	}
	unread, err := s.messages.HasUnread(ctx, group.ConversationID, uid)
	if err != nil {
		return domain.InboxRow{}, err
	}
	row.Unread = unread
	return row, nil
}

// FilterRows narrows rows to titles containing the query,
// case-insensitively. Pure; an empty query returns rows unchanged.
func FilterRows(rows []domain.InboxRow, query string) []domain.InboxRow {
	if query == "" {
		return rows
	}
	needle := strings.ToLower(query)
	filtered := make([]domain.InboxRow, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Title), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
