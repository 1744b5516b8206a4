package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shadowtalk/pkg/logger"
)

// Connected marks a freshly connected user online.
func (m *Matchmaker) Connected(userID string) {
	m.presence.MarkOnline(userID)
}

// Heartbeat refreshes the user's presence lease and, when in a session,
// its activity timestamp. The ack is sent unconditionally so clients can
// measure round trips even before their first join.
func (m *Matchmaker) Heartbeat(userID string) {
	m.presence.Heartbeat(userID)
	m.registry.Touch(userID)
	m.publisher.PublishToUser(userID, "heartbeat_ack", map[string]interface{}{
		"timestamp": time.Now().Unix(),
	})
}

// SendMessage relays a chat message to the sender's current partner after
// validating session membership. The message is persisted out of band;
// delivery never waits on the database.
func (m *Matchmaker) SendMessage(ctx context.Context, userID, sessionID, content string) error {
	partnerID, err := m.registry.IsPartnerOf(userID, sessionID)
	if err != nil {
		return err
	}
	m.registry.Touch(userID)

	now := time.Now()
	m.publisher.PublishToUser(partnerID, "receive_message", map[string]interface{}{
		"message_id": uuid.New().String(),
		"session_id": sessionID,
		"sender_id":  userID,
		"content":    content,
		"timestamp":  now.Unix(),
	})

	go func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.StoreMessage(persistCtx, sessionID, userID, content, now); err != nil {
			logger.LogError(err, "persist_message", map[string]interface{}{
				"session_id": sessionID,
			})
		}
	}()
	return nil
}

// RelaySignal forwards an opaque WebRTC signaling payload (offer, answer,
// ICE candidate) to the partner. The payload is not inspected.
func (m *Matchmaker) RelaySignal(userID, sessionID string, signal map[string]interface{}) error {
	partnerID, err := m.registry.IsPartnerOf(userID, sessionID)
	if err != nil {
		return err
	}
	m.registry.Touch(userID)
	m.publisher.PublishToUser(partnerID, "relay_signal", map[string]interface{}{
		"session_id": sessionID,
		"sender_id":  userID,
		"signal":     signal,
	})
	return nil
}

// MarkMediaReady records the caller's side of a video session as ready and
// tells the partner. When both sides are ready the session is past the
// janitor's never-ready bound.
func (m *Matchmaker) MarkMediaReady(userID, sessionID string) error {
	if err := m.registry.MarkMediaReady(userID, sessionID); err != nil {
		return err
	}
	partnerID, err := m.registry.IsPartnerOf(userID, sessionID)
	if err != nil {
		return err
	}
	m.publisher.PublishToUser(partnerID, "partner_media_ready", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

// EndSessionFor tears down the caller's session: both registry entries are
// removed, the first teardown for the session id owns the persisted end
// write, and the partner is told partner_left. notifyInitiator controls
// whether the caller also receives session_ended; disconnect paths pass
// false since the socket is already gone.
func (m *Matchmaker) EndSessionFor(ctx context.Context, userID string, reason EndReason, notifyInitiator bool) error {
	sess, ok := m.registry.Remove(userID)
	if !ok {
		return ErrNotInSession
	}
	partner, partnerPresent := m.registry.Remove(sess.PartnerID)

	now := time.Now()
	if m.registry.BeginEnd(sess.SessionID, now) {
		duration := int64(now.Sub(sess.StartedAt).Seconds())
		go func() {
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.store.EndSession(persistCtx, sess.SessionID, now, reason, duration); err != nil {
				logger.LogError(err, "persist_session_end", map[string]interface{}{
					"session_id": sess.SessionID,
				})
			}
		}()
	}

	partnerReason := reason
	if reason == EndReasonUserBanned {
		partnerReason = EndReasonPartnerBanned
	}
	if partnerPresent {
		m.publisher.PublishToUser(partner.UserID, "session_ended", map[string]interface{}{
			"session_id":   sess.SessionID,
			"reason":       string(partnerReason),
			"partner_left": true,
		})
	}
	if notifyInitiator {
		m.publisher.PublishToUser(userID, "session_ended", map[string]interface{}{
			"session_id":   sess.SessionID,
			"reason":       string(reason),
			"partner_left": false,
		})
	}

	logger.LogSessionEvent("session_ended", sess.SessionID, userID, map[string]interface{}{
		"reason":   string(reason),
		"duration": int64(now.Sub(sess.StartedAt).Seconds()),
	})
	return nil
}

// Disconnect cascades a dropped connection through every store: presence,
// queue, then session teardown with reason user_disconnected. Safe to call
// for users with no state anywhere.
func (m *Matchmaker) Disconnect(ctx context.Context, userID string) {
	m.presence.MarkOffline(userID)
	m.queue.Remove(userID)
	if err := m.EndSessionFor(ctx, userID, EndReasonUserDisconnected, false); err == nil {
		logger.LogUserAction(userID, "disconnect_teardown", nil)
	}
}

// BanUser ejects a banned user from the live system. Their session, if
// any, ends with user_banned persisted; the partner sees partner_banned.
// Flipping the persisted ban flag is the caller's job.
func (m *Matchmaker) BanUser(ctx context.Context, userID string) {
	m.queue.Remove(userID)
	if err := m.EndSessionFor(ctx, userID, EndReasonUserBanned, true); err == nil {
		logger.LogUserAction(userID, "ban_cascade", nil)
	}
	m.presence.MarkOffline(userID)
}

// Stats summarizes the live stores for the operational endpoint.
func (m *Matchmaker) Stats() map[string]interface{} {
	return map[string]interface{}{
		"online_users":    m.presence.OnlineCount(),
		"active_sessions": m.registry.Count(),
		"waiting_text":    m.queue.Len(ChatTypeText),
		"waiting_video":   m.queue.Len(ChatTypeVideo),
	}
}

// QueueStatus reports the caller's position and the current wait estimate
// for one chat type.
func (m *Matchmaker) QueueStatus(userID string, chatType ChatType) map[string]interface{} {
	position := m.queue.Position(userID, chatType)
	return map[string]interface{}{
		"chat_type":      string(chatType),
		"queued":         position > 0,
		"position":       position,
		"queue_length":   m.queue.Len(chatType),
		"estimated_wait": int(m.queue.EstimatedWait(chatType).Seconds()),
	}
}
