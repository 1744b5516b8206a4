package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shadowtalk/internal/models"
)

// SessionService persists session records and chat messages to MongoDB.
// It backs the in-memory core as its SessionStore collaborator; the live
// registry stays authoritative and never waits on these writes.
type SessionService struct {
	sessions *mongo.Collection
	messages *mongo.Collection
}

func NewSessionService(db *mongo.Database) *SessionService {
	return &SessionService{
		sessions: db.Collection("sessions"),
		messages: db.Collection("messages"),
	}
}

func (s *SessionService) CreateSession(ctx context.Context, sessionID, user1ID, user2ID string, chatType ChatType, startedAt time.Time) error {
	session := models.ChatSession{
		SessionID: sessionID,
		User1ID:   user1ID,
		User2ID:   user2ID,
		ChatType:  string(chatType),
		Status:    models.SessionStatusActive,
		StartedAt: startedAt,
		CreatedAt: startedAt,
		UpdatedAt: startedAt,
	}
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}
	return nil
}

// EndSession writes the end fields exactly once: the filter only matches a
// record whose ended_at is still unset, so a concurrent second teardown
// cannot overwrite the first.
func (s *SessionService) EndSession(ctx context.Context, sessionID string, endedAt time.Time, reason EndReason, duration int64) error {
	filter := bson.M{
		"_id":      sessionID,
		"ended_at": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     models.SessionStatusEnded,
			"ended_at":   endedAt,
			"end_reason": string(reason),
			"duration":   duration,
			"updated_at": endedAt,
		},
	}
	result, err := s.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to end session record: %w", err)
	}
	if result.MatchedCount == 0 {
		// Already ended or never persisted; either way the end fields
		// stay as first written.
		return nil
	}
	return nil
}

func (s *SessionService) StoreMessage(ctx context.Context, sessionID, senderID, content string, timestamp time.Time) error {
	message := models.ChatMessage{
		SessionID: sessionID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: timestamp,
	}
	if _, err := s.messages.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// GetSession fetches one persisted session record.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// GetSessionMessages returns a session's messages in chronological order.
func (s *SessionService) GetSessionMessages(ctx context.Context, sessionID string, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": 1}).
		SetLimit(limit)
	cursor, err := s.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
