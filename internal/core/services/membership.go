package services

import (
	"context"
	"log/slog"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type IMembershipService interface {
	// LinkDirect derives the pair's conversation ID and upserts the
	// mirror membership entries on both users. Idempotent: re-opening
	// an existing chat changes nothing.
	LinkDirect(ctx context.Context, userA, userB string) (string, error)
	// CreateGroup mints a conversation ID once and writes the group
	// record plus every member's backlink in a single transaction.
	CreateGroup(ctx context.Context, adminUID string, memberUIDs []string, name, avatarURL string) (*domain.Group, error)
	ListDirectPeers(ctx context.Context, uid string) ([]domain.DirectPeerEntry, error)
	ListGroups(ctx context.Context, uid string) ([]domain.Group, error)
	GetGroup(ctx context.Context, conversationID string) (*domain.Group, error)
}

type MembershipService struct {
	log       *slog.Logger
	peers     domain.MembershipRepository
	groups    domain.GroupRepository
	convs     domain.ConversationRepository
	txManager contracts.TxManager
}

func NewMembershipService(
	log *slog.Logger,
	peers domain.MembershipRepository,
	groups domain.GroupRepository,
	convs domain.ConversationRepository,
	txManager contracts.TxManager,
) *MembershipService {
	return &MembershipService{
		log:       log,
		peers:     peers,
		groups:    groups,
		convs:     convs,
		txManager: txManager,
	}
}

// LinkDirect writes both sides inside one transaction. Either both
// users see the chat or neither does; there is no half-linked state.
func (s *MembershipService) LinkDirect(ctx context.Context, userA, userB string) (string, error) {
	conversationID, err := domain.DirectConversationID(userA, userB)
	if err != nil {
		return "", err
	}
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.convs.CreateConversation(txCtx, conversationID, domain.ConversationDirect); err != nil {
			return err
		}
		if err := s.peers.UpsertPeer(txCtx, &domain.DirectPeerEntry{
			OwnerUID:       userA,
			PeerUID:        userB,
			ConversationID: conversationID,
		}); err != nil {
			return err
		}
		return s.peers.UpsertPeer(txCtx, &domain.DirectPeerEntry{
			OwnerUID:       userB,
			PeerUID:        userA,
			ConversationID: conversationID,
		})
	})
	if err != nil {
		s.log.ErrorContext(ctx, "membership - link direct - failed", "conv_id", conversationID, "err", err)
		return "", err
	}
	s.log.InfoContext(ctx, "membership - link direct - success", "conv_id", conversationID)
	return conversationID, nil
}

func (s *MembershipService) CreateGroup(
	ctx context.Context,
	adminUID string,
	memberUIDs []string,
	name, avatarURL string,
) (*domain.Group, error) {
	// Fail fast before any write
	if adminUID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if name == "" {
		return nil, domain.ErrEmptyGroupName
	}
	if avatarURL == "" {
		return nil, domain.ErrMissingGroupAvatar
	}
	if len(memberUIDs) == 0 {
		return nil, domain.ErrNoGroupMembers
	}
	for _, uid := range memberUIDs {
		if uid == "" {
			return nil, domain.ErrInvalidUserID
		}
	}

	// Minted once; every write below reuses this value.
	conversationID, err := domain.GroupConversationID(adminUID)
	if err != nil {
		return nil, err
	}
	group := &domain.Group{
		ConversationID: conversationID,
		Name:           name,
		AdminUID:       adminUID,
		AvatarURL:      avatarURL,
		MemberUIDs:     dedupeMembers(adminUID, memberUIDs),
	}
	// All-or-nothing: group record, conversation, and the full member
	// fan-out commit together or not at all.
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.convs.CreateConversation(txCtx, conversationID, domain.ConversationGroup); err != nil {
			return err
		}
		if err := s.groups.CreateGroup(txCtx, group); err != nil {
			return err
		}
		for _, uid := range group.MemberUIDs {
			if err := s.groups.AddMember(txCtx, conversationID, uid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "membership - create group - failed", "conv_id", conversationID, "admin", adminUID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "membership - create group - success", "conv_id", conversationID, "members", len(group.MemberUIDs))
	return group, nil
}

func (s *MembershipService) ListDirectPeers(ctx context.Context, uid string) ([]domain.DirectPeerEntry, error) {
	return s.peers.ListPeers(ctx, uid)
}

func (s *MembershipService) ListGroups(ctx context.Context, uid string) ([]domain.Group, error) {
	return s.groups.ListGroups(ctx, uid)
}

func (s *MembershipService) GetGroup(ctx context.Context, conversationID string) (*domain.Group, error) {
	return s.groups.GetGroup(ctx, conversationID)
}

// dedupeMembers puts the admin first and drops duplicates.
func dedupeMembers(adminUID string, memberUIDs []string) []string {
	seen := map[string]bool{adminUID: true}
	members := []string{adminUID}
	for _, uid := range memberUIDs {
		if !seen[uid] {
			seen[uid] = true
			members = append(members, uid)
		}
	}
	return members
}
