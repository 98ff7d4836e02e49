// Package events fans auth state changes out to subscribed clients.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthEventType names an auth state change
type AuthEventType string

const (
	SignedIn       AuthEventType = "SIGNED_IN"
	SignedOut      AuthEventType = "SIGNED_OUT"
	TokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	UserUpdated    AuthEventType = "USER_UPDATED"
)

// ClientBufferSize is the number of undelivered events kept per subscriber
const ClientBufferSize = 64

// AuthEvent is one auth state change of a user
type AuthEvent struct {
	Type      AuthEventType `json:"event"`
	UserID    uuid.UUID     `json:"user_id"`
	SessionID uuid.UUID     `json:"session_id"`
	At        time.Time     `json:"at"`
}

// Data returns the JSON payload sent to subscribers
func (e AuthEvent) Data() string {
	b, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Client is one subscription, usually an open event stream
type Client struct {
	ID     string
	UserID uuid.UUID
	Events chan AuthEvent
}

// Hub manages subscriptions and delivers events to the clients of a user
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
	logger  *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Subscribe registers a new client for userID. After Close the client comes
// back unregistered with its channel already closed.
func (h *Hub) Subscribe(userID uuid.UUID) *Client {
	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Events: make(chan AuthEvent, ClientBufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(client.Events)
		return client
	}
	h.clients[client.ID] = client
	h.logger.Debug("auth event subscriber registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID.String()),
		zap.Int("total", len(h.clients)),
	)
	return client
}

// Unsubscribe removes a client and closes its channel
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("auth event subscriber removed",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// Publish delivers event to every client of event.UserID. A client whose
// buffer is full misses the event.
func (h *Hub) Publish(event AuthEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID != event.UserID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("auth event subscriber buffer full, skipping event",
				zap.String("client_id", client.ID),
				zap.String("event", string(event.Type)),
			)
		}
	}
}

// Count returns the number of subscribed clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close ends every subscription; open streams see their channel closed and return
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, client := range h.clients {
		close(client.Events)
		delete(h.clients, id)
	}
}
