package models

import "time"

// Session statuses as persisted on the session record.
const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

// ChatSession is the durable counterpart of an in-memory active session.
// It is created when a pair is committed and finalized exactly once when
// the session ends; the in-memory registry stays authoritative for live
// routing.
type ChatSession struct {
	SessionID string     `bson:"_id" json:"session_id"`
	User1ID   string     `bson:"user1_id" json:"user1_id"`
	User2ID   string     `bson:"user2_id" json:"user2_id"`
	ChatType  string     `bson:"chat_type" json:"chat_type"`
	Status    string     `bson:"status" json:"status"`
	StartedAt time.Time  `bson:"started_at" json:"started_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	EndReason string     `bson:"end_reason,omitempty" json:"end_reason,omitempty"`
	Duration  int64      `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// ChatMessage is a persisted text-chat message.
type ChatMessage struct {
	SessionID string    `bson:"session_id" json:"session_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
