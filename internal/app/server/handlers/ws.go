package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chatsync/internal/app/registry"
	"chatsync/internal/app/server/ws"
	"chatsync/internal/core/domain"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/pkg/middleware"
)

type WSHandler struct {
	hub     *registry.Registry
	manager services.IManagerService
}

func NewWSHandler(hub *registry.Registry, manager services.IManagerService) *WSHandler {
	return &WSHandler{
		hub:     hub,
		manager: manager,
	}
}

func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised missing user_id")
		http.Error(w, "Unauthorized: User ID missing", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	convID := r.URL.Query().Get("conv_id")
	// Authorize before paying for the upgrade.
	sender, err := s.manager.HandleConnect(r.Context(), userID, convID)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - handle connect - rejected", "conv_id", convID, "user_id", userID, "err", err)
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrNotParticipant):
			status = http.StatusForbidden
		case errors.Is(err, domain.ErrInvalidConversationID),
			errors.Is(err, domain.ErrMalformedConversationID),
			errors.Is(err, domain.ErrInvalidUserID):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrGroupNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	// The socket outlives the HTTP request; detach from its cancellation.
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  32,
		WriteBufferSize: 32,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade - ws upgrade failed", "err", err)
		cancel()
		return
	}
	defer conn.Close()
	conn.SetCloseHandler(func(code int, text string) error {
		log.Info("ws handler - ws closed", "user_id", userID)
		cancel()
		return nil
	})
	socket := ws.NewWebSocket(ctx, conn)

	// Full replay before going live: handshake announces the count, then
	// every record streams down in append order.
	history, err := s.manager.HandleHistory(ctx, convID)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - handle history - failed", "conv_id", convID, "err", err)
		socket.Close()
		cancel()
		return
	}
	resp := domain.HandshakeResponse{
		Type:           domain.TypeHandshake,
		ConversationID: convID,
		History:        len(history),
	}
	if data, err := json.Marshal(resp); err == nil {
		_ = socket.WriteMessage(data)
	}
	for i := range history {
		data, err := json.Marshal(domain.WireMessage(&history[i]))
		if err != nil {
			continue
		}
		_ = socket.WriteMessage(data)
	}
	span.SetAttributes(
		attribute.String("chat.conv_id", convID),
		attribute.Int("chat.history_size", len(history)),
	)
	log.InfoContext(r.Context(), "ws handler - ws connection established", "conv_id", convID, "user_id", userID)

	// Live from here: register with the hub, start the heartbeat, read.
	client := ws.NewClient(ctx, socket, userID, convID)
	s.hub.Register(client)
	defer s.manager.HandleDisconnect(sessionCtx, userID, convID)
	defer s.hub.Unregister(client)
	go s.manager.HandleHeartbeat(ctx, userID, convID)

	// Frames are handled inline so one socket's sends reach the stream
	// in the order they were read.
	socket.ReadLoop(func(data []byte) {
		if err := s.manager.HandleMessage(ctx, sender, convID, data); err != nil {
			frame, _ := json.Marshal(domain.ErrorMessage{
				Type:    domain.TypeError,
				Code:    "message_rejected",
				Message: err.Error(),
			})
			_ = client.Send(ctx, frame)
		}
	})
}
