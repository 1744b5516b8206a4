package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shadowtalk/pkg/logger"
)

const (
	// Defaults applied when the hub carries no explicit tunables.
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 64 * 1024

	// Buffer size for client send channel
	sendBufferSize = 256
)

var newline = []byte{'\n'}

// Client is one WebSocket connection. Inbound events go to the hub's
// handler; outbound events arrive on the Send channel from the hub.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	UserID    string
	IP        string
	UserAgent string

	ConnectedAt time.Time

	// Pump tunables, taken from the hub's config at creation.
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64

	// Guards Send against writes after the hub has closed it.
	closeMu sync.Mutex
	closed  bool

	// Rate limiting window
	messageCount int
	windowStart  time.Time
}

// NewClient creates a client for an upgraded connection, picking up the
// pump tunables from the hub's config.
func NewClient(conn *websocket.Conn, hub *Hub, userID string) *Client {
	c := &Client{
		Conn:           conn,
		Hub:            hub,
		Send:           make(chan []byte, sendBufferSize),
		UserID:         userID,
		ConnectedAt:    time.Now(),
		windowStart:    time.Now(),
		writeWait:      hub.cfg.WriteWait,
		pongWait:       hub.cfg.PongWait,
		pingPeriod:     hub.cfg.PingPeriod,
		maxMessageSize: hub.cfg.MaxMessageSize,
	}
	if c.writeWait <= 0 {
		c.writeWait = defaultWriteWait
	}
	if c.pongWait <= 0 {
		c.pongWait = defaultPongWait
	}
	if c.pingPeriod <= 0 || c.pingPeriod >= c.pongWait {
		c.pingPeriod = (c.pongWait * 9) / 10
	}
	if c.maxMessageSize <= 0 {
		c.maxMessageSize = defaultMaxMessageSize
	}
	return c
}

// ReadPump reads events from the connection and dispatches them until the
// connection drops, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithFields(map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				}).Error("WebSocket read error")
			}
			break
		}

		if !c.checkRateLimit() {
			c.sendError("Rate limit exceeded")
			continue
		}

		wsMsg, err := FromJSON(message)
		if err != nil {
			c.sendError(fmt.Sprintf("Invalid message format: %v", err))
			continue
		}
		if err := wsMsg.Validate(); err != nil {
			c.sendError(fmt.Sprintf("Message validation failed: %v", err))
			continue
		}

		c.Hub.handler.HandleEvent(c, wsMsg)
	}
}

// WritePump writes outbound events and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same frame
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues an outbound message. Messages are dropped when the
// client's buffer is full (slow consumer) or the hub has already torn the
// connection down.
func (c *Client) SendMessage(msg *WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		logger.WithError(err).Error("Failed to serialize message")
		return
	}

	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		logger.WithField("user_id", c.UserID).Warn("Send buffer full, dropping message")
	}
}

// closeSend closes the Send channel exactly once. After this, SendMessage
// becomes a no-op. Only the hub calls this.
func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) sendError(message string) {
	c.SendMessage(NewWSMessage(MessageTypeError, map[string]interface{}{
		"message": message,
	}))
}

// checkRateLimit allows up to 60 inbound events per 10-second window.
func (c *Client) checkRateLimit() bool {
	now := time.Now()
	if now.Sub(c.windowStart) > 10*time.Second {
		c.windowStart = now
		c.messageCount = 0
	}
	c.messageCount++
	return c.messageCount <= 60
}
