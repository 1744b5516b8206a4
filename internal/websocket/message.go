package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies a WebSocket event on the wire.
type MessageType string

const (
	// Inbound client events
	MessageTypeJoinQueue   MessageType = "join_queue"
	MessageTypeCancelQueue MessageType = "cancel_queue"
	MessageTypeHeartbeat   MessageType = "heartbeat"
	MessageTypeSendMessage MessageType = "send_message"
	MessageTypeRelaySignal MessageType = "relay_signal"
	MessageTypeMediaReady  MessageType = "media_ready"
	MessageTypeEndSession  MessageType = "end_session"

	// Outbound server events
	MessageTypeSearchStarted     MessageType = "search_started"
	MessageTypeSearchCancelled   MessageType = "search_cancelled"
	MessageTypeMatchFound        MessageType = "match_found"
	MessageTypeHeartbeatAck      MessageType = "heartbeat_ack"
	MessageTypeReceiveMessage    MessageType = "receive_message"
	MessageTypePartnerMediaReady MessageType = "partner_media_ready"
	MessageTypeSessionEnded      MessageType = "session_ended"
	MessageTypeError             MessageType = "error"
	MessageTypeConnected         MessageType = "connected"
)

// WSMessage is the wire envelope for every event in both directions.
type WSMessage struct {
	ID        string                 `json:"id"`
	Type      MessageType            `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewWSMessage creates an outbound message envelope.
func NewWSMessage(msgType MessageType, data map[string]interface{}) *WSMessage {
	return &WSMessage{
		ID:        uuid.New().String(),
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (msg *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(msg)
}

// FromJSON parses an inbound message.
func FromJSON(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return &msg, nil
}

// GetString reads a string field from the message data.
func (msg *WSMessage) GetString(key string) string {
	if msg.Data == nil {
		return ""
	}
	if s, ok := msg.Data[key].(string); ok {
		return s
	}
	return ""
}

// GetBool reads a boolean field from the message data.
func (msg *WSMessage) GetBool(key string) bool {
	if msg.Data == nil {
		return false
	}
	b, _ := msg.Data[key].(bool)
	return b
}

// GetStringSlice reads a string-array field from the message data.
// JSON arrays decode as []interface{}; non-string elements are skipped.
func (msg *WSMessage) GetStringSlice(key string) []string {
	if msg.Data == nil {
		return nil
	}
	raw, ok := msg.Data[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetMap reads a nested object field from the message data.
func (msg *WSMessage) GetMap(key string) map[string]interface{} {
	if msg.Data == nil {
		return nil
	}
	m, _ := msg.Data[key].(map[string]interface{})
	return m
}

// Validate checks the envelope before dispatch.
func (msg *WSMessage) Validate() error {
	if msg.Type == "" {
		return fmt.Errorf("message type is required")
	}
	switch msg.Type {
	case MessageTypeSendMessage:
		if msg.GetString("content") == "" {
			return fmt.Errorf("content is required for send_message")
		}
		if msg.GetString("session_id") == "" {
			return fmt.Errorf("session_id is required for send_message")
		}
	case MessageTypeRelaySignal, MessageTypeMediaReady:
		if msg.GetString("session_id") == "" {
			return fmt.Errorf("session_id is required for %s", msg.Type)
		}
	}
	return nil
}
