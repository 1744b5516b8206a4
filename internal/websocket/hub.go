package websocket

import (
	"sync"
	"time"

	"shadowtalk/internal/config"
	"shadowtalk/pkg/logger"
)

// EventHandler dispatches parsed client events into the application and
// cleans up when a connection drops. Implemented outside this package to
// keep the hub free of matchmaking logic.
type EventHandler interface {
	HandleEvent(client *Client, msg *WSMessage)
	HandleDisconnect(userID string)
}

// Hub maintains the set of connected clients and routes outbound events
// to them. It is the application's EventPublisher: one client per user id,
// a reconnect replaces the previous connection.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]*Client

	Register      chan *Client
	Unregister    chan *Client
	UserBroadcast chan *UserMessage

	handler EventHandler
	cfg     config.WebSocketConfig

	mu sync.RWMutex
}

// UserMessage is an outbound event addressed to one user.
type UserMessage struct {
	UserID  string
	Message *WSMessage
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		cfg:           cfg,
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		UserBroadcast: make(chan *UserMessage, 256),
	}
}

// SetHandler wires the event handler. Must be called before Run.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Run processes registration and outbound routing. Meant to be launched
// as a goroutine from main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case userMsg := <-h.UserBroadcast:
			h.deliverToUser(userMsg)
		}
	}
}

// PublishToUser implements the application's event publisher. Events for
// users without a live connection are dropped.
func (h *Hub) PublishToUser(userID, event string, payload map[string]interface{}) {
	h.UserBroadcast <- &UserMessage{
		UserID:  userID,
		Message: NewWSMessage(MessageType(event), payload),
	}
}

// IsConnected reports whether the user has a live connection.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userClients[userID]
	return ok
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	// A reconnect replaces the old connection for the same user.
	var replaced *Client
	if old, ok := h.userClients[client.UserID]; ok {
		delete(h.clients, old)
		replaced = old
	}
	h.clients[client] = true
	h.userClients[client.UserID] = client
	total := len(h.clients)

	h.mu.Unlock()

	if replaced != nil {
		// closeSend makes further SendMessage calls on the old client
		// no-ops; closing the connection unblocks its pumps, whose
		// Unregister is then ignored because the client is already gone
		// from the maps.
		replaced.closeSend()
		if replaced.Conn != nil {
			replaced.Conn.Close()
		}
	}

	logger.WithFields(map[string]interface{}{
		"user_id":       client.UserID,
		"total_clients": total,
	}).Info("Client registered")

	client.SendMessage(NewWSMessage(MessageTypeConnected, map[string]interface{}{
		"user_id":     client.UserID,
		"server_time": time.Now().Unix(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	// Only drop the user mapping if it still points at this connection;
	// a reconnect may have replaced it already.
	if current, ok := h.userClients[client.UserID]; ok && current == client {
		delete(h.userClients, client.UserID)
	}
	client.closeSend()
	total := len(h.clients)

	h.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"user_id":       client.UserID,
		"total_clients": total,
	}).Info("Client unregistered")

	// The disconnect cascade publishes events back through this hub, so it
	// must not run on the Run goroutine: a full UserBroadcast buffer would
	// deadlock the hub against itself.
	if h.handler != nil {
		go h.handler.HandleDisconnect(client.UserID)
	}
}

func (h *Hub) deliverToUser(userMsg *UserMessage) {
	h.mu.RLock()
	client, ok := h.userClients[userMsg.UserID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	client.SendMessage(userMsg.Message)
}
