package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type IManagerService interface {
	// HandleConnect authorizes the user against the conversation and
	// returns the sender profile the socket will act as. Connecting to a
	// direct conversation links both sides if needed.
	HandleConnect(ctx context.Context, uid, convID string) (*domain.UserProfile, error)
	// HandleHistory replays the full log for the initial screen fill.
	HandleHistory(ctx context.Context, convID string) ([]domain.Message, error)
	// HandleMessage decodes one inbound socket frame and hands it to the
	// ingest pipeline.
	HandleMessage(ctx context.Context, sender *domain.UserProfile, convID string, raw []byte) error
	// HandleHeartbeat keeps the user marked online and pushes presence
	// snapshots to the room until ctx is cancelled.
	HandleHeartbeat(ctx context.Context, uid, convID string) error
	// HandleDisconnect cleans up the conversation's volatile state once
	// the last participant leaves. The log itself is never touched.
	HandleDisconnect(ctx context.Context, uid, convID string) error
}

var tracer = otel.Tracer("manager-service")

type ManagerService struct {
	log        *slog.Logger
	profiles   domain.ProfileRepository
	groups     domain.GroupRepository
	membership IMembershipService
	message    IMessageService
	presStore  contracts.PresenceStore
	queue      contracts.MessageQueue
	registry   contracts.Registry
}

func NewManagerService(
	log *slog.Logger,
	profiles domain.ProfileRepository,
	groups domain.GroupRepository,
	membership IMembershipService,
	message IMessageService,
	presStore contracts.PresenceStore,
	queue contracts.MessageQueue,
	registry contracts.Registry,
) *ManagerService {
	return &ManagerService{
		log:        log,
		profiles:   profiles,
		groups:     groups,
		membership: membership,
		message:    message,
		presStore:  presStore,
		queue:      queue,
		registry:   registry,
	}
}

func (m *ManagerService) HandleConnect(ctx context.Context, uid, convID string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleConnect", trace.WithAttributes(
		attribute.String("user_id", uid),
		attribute.String("conv_id", convID),
	))
	defer span.End()
	if uid == "" {
		return nil, domain.ErrInvalidUserID
	}
	if convID == "" {
		return nil, domain.ErrInvalidConversationID
	}

	peerUID, err := domain.OtherParticipant(convID, uid)
	switch {
	case err == nil:
		// Direct conversation. Connecting is enough to (re)link both
		// sides; the call is a no-op when the chat already exists.
		if _, err := m.membership.LinkDirect(ctx, uid, peerUID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "link direct failed")
			m.log.ErrorContext(ctx, "manager - handle connect - link direct failed", "conv_id", convID, "user_id", uid, "err", err)
			return nil, err
		}
	case errors.Is(err, domain.ErrNotParticipant):
		// Two-party ID, but the connecting user isn't one of them.
		span.RecordError(err)
		return nil, err
	default:
		// Not shaped like a direct ID; must be a group the user belongs to.
		member, err := m.groups.IsMember(ctx, convID, uid)
		if err != nil {
			span.RecordError(err)
			m.log.ErrorContext(ctx, "manager - handle connect - member lookup failed", "conv_id", convID, "user_id", uid, "err", err)
			return nil, err
		}
		if !member {
			span.RecordError(domain.ErrNotParticipant)
			return nil, domain.ErrNotParticipant
		}
	}

	sender, err := m.profiles.GetProfile(ctx, uid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile lookup failed")
		m.log.ErrorContext(ctx, "manager - handle connect - profile lookup failed", "user_id", uid, "err", err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "connected")
	m.log.InfoContext(ctx, "manager - handle connect - success", "conv_id", convID, "user_id", uid)
	return sender, nil
}

func (m *ManagerService) HandleHistory(ctx context.Context, convID string) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleHistory", trace.WithAttributes(
		attribute.String("conv_id", convID),
	))
	defer span.End()
	msgs, err := m.message.History(ctx, convID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("history_size", len(msgs)))
	return msgs, nil
}

func (m *ManagerService) HandleMessage(ctx context.Context, sender *domain.UserProfile, convID string, raw []byte) error {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleMessage", trace.WithAttributes(
		attribute.String("sender_id", sender.UID),
		attribute.String("conv_id", convID),
		attribute.Int("payload_size", len(raw)),
	))
	defer span.End()
	var frame domain.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		span.RecordError(err)
		m.log.ErrorContext(ctx, "manager - handle message - wrong format", "sender_id", sender.UID, "conv_id", convID)
		return err
	}
	if _, err := m.message.AcceptMessage(ctx, sender, convID, frame); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "accept message failed")
		m.log.ErrorContext(ctx, "manager - handle message - accept message failed", "conv_id", convID, "sender_id", sender.UID, "err", err)
		return err
	}
	return nil
}

func (m *ManagerService) HandleHeartbeat(ctx context.Context, uid, convID string) error {
	if uid == "" || convID == "" {
		return domain.ErrInvalidConversationID
	}
	// First check-in happens immediately so the join shows up in the
	// next presence snapshot.
	if err := m.presStore.CheckIn(ctx, convID, uid, 45*time.Second); err != nil {
		m.log.ErrorContext(ctx, "manager - handle heartbeat - check in failed", "conv_id", convID, "user_id", uid, "err", err)
	}
	m.publishPresence(ctx, convID)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("manager - handle heartbeat - stopped", "conv_id", convID, "user_id", uid)
			return nil
		case <-ticker.C:
			_, span := tracer.Start(ctx, "Heartbeat.CheckIn")
			if err := m.presStore.CheckIn(ctx, convID, uid, 45*time.Second); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "redis update failed")
				m.log.ErrorContext(ctx, "manager - handle heartbeat - check in failed", "conv_id", convID, "user_id", uid, "err", err)
			}
			span.End()
			m.publishPresence(ctx, convID)
		}
	}
}

func (m *ManagerService) publishPresence(ctx context.Context, convID string) {
	online, err := m.presStore.OnlineUsers(ctx, convID)
	if err != nil {
		m.log.ErrorContext(ctx, "manager - publish presence - lookup failed", "conv_id", convID, "err", err)
		return
	}
	m.registry.Publish(ctx, convID, domain.PresenceEvent{
		Type:           domain.TypePresence,
		ConversationID: convID,
		Online:         online,
	})
}

func (m *ManagerService) HandleDisconnect(ctx context.Context, uid, convID string) error {
	ctx, span := tracer.Start(ctx, "ManagerService.HandleDisconnect", trace.WithAttributes(
		attribute.String("user_id", uid),
		attribute.String("conv_id", convID),
	))
	defer span.End()
	if uid == "" || convID == "" {
		return domain.ErrInvalidConversationID
	}
	// Drop the user now; their last check-in would otherwise keep them
	// listed online for the rest of the freshness window.
	if err := m.presStore.CheckOut(ctx, convID, uid); err != nil {
		span.RecordError(err)
		m.log.ErrorContext(ctx, "manager - handle disconnect - check out failed", "conv_id", convID, "user_id", uid, "err", err)
	}
	m.publishPresence(ctx, convID)
	// Streams and presence sets are scaffolding around the log; they can
	// go once the room drains. The log and its sequence stay forever.
	if online, _ := m.presStore.OnlineUsers(ctx, convID); len(online) == 0 {
		if err := m.presStore.ClearConversation(ctx, convID); err != nil {
			span.RecordError(err)
			m.log.ErrorContext(ctx, "manager - handle disconnect - clear presence failed", "conv_id", convID, "err", err)
		}
		if err := m.queue.DeleteStream(ctx, convID); err != nil {
			span.RecordError(err)
			m.log.ErrorContext(ctx, "manager - handle disconnect - delete stream failed", "conv_id", convID, "err", err)
		}
	}
	m.log.InfoContext(ctx, "manager - handle disconnect - success", "conv_id", convID, "user_id", uid)
	return nil
}
