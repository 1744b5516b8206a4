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

// UserService reads profiles for match enrichment and maintains last_seen
// and the ban flag. Registration and authentication live elsewhere.
type UserService struct {
	users *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{users: db.Collection("users")}
}

// ResolveProfile returns the partner-facing subset of a user record.
func (s *UserService) ResolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user not found: %s", userID)
		}
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	return &models.Profile{
		UserID:      user.UserID,
		DisplayName: user.DisplayName,
		Gender:      user.Gender,
		Interests:   user.Interests,
		Location:    user.Location,
	}, nil
}

// IsBanned reports the persisted ban flag. Unknown users are not banned;
// anonymous first-time connections have no record yet.
func (s *UserService) IsBanned(ctx context.Context, userID string) (bool, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, fmt.Errorf("failed to check ban status: %w", err)
	}
	return user.IsBanned, nil
}

// UpdateLastSeen stamps the user's record on connect and disconnect.
// Upserts so anonymous users get a record on first contact.
func (s *UserService) UpdateLastSeen(ctx context.Context, userID string) error {
	now := time.Now()
	update := bson.M{
		"$set":         bson.M{"last_seen": now},
		"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.users.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to update last_seen: %w", err)
	}
	return nil
}

// SetBanned flips the persisted ban flag. The live-system cascade
// (session teardown, partner notification) is the matchmaker's job.
func (s *UserService) SetBanned(ctx context.Context, userID string, banned bool) error {
	update := bson.M{
		"$set": bson.M{"is_banned": banned, "updated_at": time.Now()},
	}
	result, err := s.users.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to update ban flag: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}
