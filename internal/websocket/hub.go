package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// Hub maintains the set of active clients and delivers events to them
type Hub struct {
	// One connection per user; a new connection replaces the old one
	clients map[types.EntityID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	// Mutex to protect clients map
	mu sync.RWMutex
}

// BroadcastMessage represents a message to be broadcast to specific users
type BroadcastMessage struct {
	UserIDs []types.EntityID `json:"user_ids"`
	Event   *types.Event     `json:"event"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[types.EntityID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for userID, client := range h.clients {
				close(client.send)
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if existing, ok := h.clients[client.userID]; ok {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("user_id", client.userID.String()))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("user_id", client.userID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			// a replaced client must not evict its successor
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("user_id", client.userID.String()))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message.UserIDs, message.Event)
		}
	}
}

// RegisterClient reports false once the hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToUsers queues an event for specific users. It never blocks; a
// full queue drops the event.
func (h *Hub) BroadcastToUsers(userIDs []types.EntityID, event *types.Event) {
	message := &BroadcastMessage{
		UserIDs: userIDs,
		Event:   event,
	}

	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("type", string(event.Type)))
	}
}

func (h *Hub) BroadcastToUser(userID types.EntityID, event *types.Event) {
	h.BroadcastToUsers([]types.EntityID{userID}, event)
}

func (h *Hub) deliver(userIDs []types.EntityID, event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		client, ok := h.clients[userID]
		if !ok {
			continue
		}
		if err := client.SendEvent(event); err != nil {
			slog.Error("Failed to send event to client",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			go h.UnregisterClient(client)
		}
	}
}

func (h *Hub) IsUserConnected(userID types.EntityID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
