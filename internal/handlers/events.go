package handlers

import (
	"context"
	"time"

	"shadowtalk/internal/services"
	"shadowtalk/internal/websocket"
	"shadowtalk/pkg/logger"
)

// EventRouter dispatches inbound WebSocket events to the matchmaking core.
// It implements websocket.EventHandler.
type EventRouter struct {
	matchmaker *services.Matchmaker
	users      *services.UserService
}

func NewEventRouter(matchmaker *services.Matchmaker, users *services.UserService) *EventRouter {
	return &EventRouter{
		matchmaker: matchmaker,
		users:      users,
	}
}

// HandleConnect runs once per accepted connection, before any event.
func (r *EventRouter) HandleConnect(userID string) {
	r.matchmaker.Connected(userID)
	r.touchLastSeen(userID)
}

// HandleEvent routes one parsed client event.
func (r *EventRouter) HandleEvent(client *websocket.Client, msg *websocket.WSMessage) {
	ctx := context.Background()

	switch msg.Type {
	case websocket.MessageTypeJoinQueue:
		r.handleJoinQueue(ctx, client, msg)

	case websocket.MessageTypeCancelQueue:
		chatType := services.ParseChatType(msg.GetString("chat_type"))
		r.matchmaker.CancelQueue(client.UserID, chatType)

	case websocket.MessageTypeHeartbeat:
		r.matchmaker.Heartbeat(client.UserID)

	case websocket.MessageTypeSendMessage:
		err := r.matchmaker.SendMessage(ctx, client.UserID, msg.GetString("session_id"), msg.GetString("content"))
		r.reportSessionError(client, err)

	case websocket.MessageTypeRelaySignal:
		err := r.matchmaker.RelaySignal(client.UserID, msg.GetString("session_id"), msg.GetMap("signal"))
		r.reportSessionError(client, err)

	case websocket.MessageTypeMediaReady:
		err := r.matchmaker.MarkMediaReady(client.UserID, msg.GetString("session_id"))
		r.reportSessionError(client, err)

	case websocket.MessageTypeEndSession:
		reason := services.ParseEndReason(msg.GetString("reason"))
		if err := r.matchmaker.EndSessionFor(ctx, client.UserID, reason, true); err != nil {
			r.reportSessionError(client, err)
		}

	default:
		client.SendMessage(websocket.NewWSMessage(websocket.MessageTypeError, map[string]interface{}{
			"message": "Unknown message type: " + string(msg.Type),
		}))
	}
}

// HandleDisconnect cascades a dropped connection through the core and
// stamps last_seen.
func (r *EventRouter) HandleDisconnect(userID string) {
	r.matchmaker.Disconnect(context.Background(), userID)
	r.touchLastSeen(userID)
}

func (r *EventRouter) handleJoinQueue(ctx context.Context, client *websocket.Client, msg *websocket.WSMessage) {
	entry := services.WaitingEntry{
		UserID:     client.UserID,
		ChatType:   services.ParseChatType(msg.GetString("chat_type")),
		Interests:  msg.GetStringSlice("interests"),
		RawGender:  msg.GetString("gender"),
		Location:   msg.GetString("location"),
		Language:   msg.GetString("language"),
		MediaReady: msg.GetBool("media_ready"),
	}
	if err := r.matchmaker.JoinQueue(ctx, entry); err != nil {
		client.SendMessage(websocket.NewWSMessage(websocket.MessageTypeError, map[string]interface{}{
			"message": "Already in an active session",
		}))
	}
}

// reportSessionError maps core sentinel errors onto a client error event.
// Benign not-found races are ignored.
func (r *EventRouter) reportSessionError(client *websocket.Client, err error) {
	switch err {
	case nil, services.ErrNotInSession:
	case services.ErrNotParticipant:
		client.SendMessage(websocket.NewWSMessage(websocket.MessageTypeError, map[string]interface{}{
			"message": "Not a participant of this session",
		}))
	default:
		client.SendMessage(websocket.NewWSMessage(websocket.MessageTypeError, map[string]interface{}{
			"message": err.Error(),
		}))
	}
}

func (r *EventRouter) touchLastSeen(userID string) {
	if r.users == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.users.UpdateLastSeen(ctx, userID); err != nil {
			logger.LogError(err, "update_last_seen", map[string]interface{}{
				"user_id": userID,
			})
		}
	}()
}
