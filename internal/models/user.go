package models

import "time"

// User is the persisted profile record. Authentication and registration
// live in a separate service; this backend only reads profiles to enrich
// match notifications and writes last_seen.
type User struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Gender      string    `bson:"gender" json:"gender"`
	Interests   []string  `bson:"interests" json:"interests"`
	Location    string    `bson:"location" json:"location"`
	Language    string    `bson:"language" json:"language"`
	IsBanned    bool      `bson:"is_banned" json:"is_banned"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastSeen    time.Time `bson:"last_seen" json:"last_seen"`
}

// Profile is the subset of User used to describe a partner in a
// match notification.
type Profile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Gender      string   `json:"gender"`
	Interests   []string `json:"interests"`
	Location    string   `json:"location"`
}
