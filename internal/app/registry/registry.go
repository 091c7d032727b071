package registry

import (
	"context"
	"encoding/json"
	"sync"

	"chatsync/internal/core/contracts"
	"chatsync/internal/core/domain"
)

type Registry struct {
	mu         sync.RWMutex
	clients    map[string]contracts.Client // user_id → client
	room_hub   map[string]map[string]contracts.Client
	workers    map[string]context.CancelFunc
	run_worker func(ctx context.Context, convID string) error
}

func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]contracts.Client),
		room_hub: make(map[string]map[string]contracts.Client),
		workers:  make(map[string]context.CancelFunc),
	}
}

// RunWorker installs the hook that spins up a conversation's stream
// consumer; the first client in a room starts it, the last one out
// cancels it.
func (h *Registry) RunWorker(run_worker func(ctx context.Context, convID string) error) {
	h.run_worker = run_worker
}

func (h *Registry) Register(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	convID := c.ConversationID()
	userID := c.UserID()
	if h.room_hub[convID] == nil {
		h.room_hub[convID] = make(map[string]contracts.Client)
		ctx, cancel := context.WithCancel(context.Background())
		h.workers[convID] = cancel
		go h.run_worker(ctx, convID)
	}
	h.room_hub[convID][userID] = c
	h.clients[userID] = c
}

func (h *Registry) Unregister(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	convID := c.ConversationID()
	userID := c.UserID()
	delete(h.room_hub[convID], userID)
	delete(h.clients, userID)
	if len(h.room_hub[convID]) == 0 {
		delete(h.room_hub, convID)
		// stop worker
		if cancel := h.workers[convID]; cancel != nil {
			cancel()
			delete(h.workers, convID)
		}
	}
}

func (h *Registry) SendAck(ctx context.Context, userID string, ack domain.AckMessage) {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	data, _ := json.Marshal(ack)
	_ = c.Send(ctx, data)
}

// Broadcast fans a freshly persisted record out to everyone in the room
// except its sender, who gets the ack instead.
func (h *Registry) Broadcast(ctx context.Context, convID string, msg domain.ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, _ := json.Marshal(msg)
	for uid, c := range h.room_hub[convID] {
		if uid == msg.SenderID {
			continue
		}
		_ = c.Send(ctx, data)
	}
}

// Publish delivers a control event to every room member, originator
// included, so edits and read receipts echo back to their own screens.
func (h *Registry) Publish(ctx context.Context, convID string, event any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, c := range h.room_hub[convID] {
		_ = c.Send(ctx, data)
	}
}
