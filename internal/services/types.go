package services

import (
	"context"
	"errors"
	"time"

	"shadowtalk/internal/models"
)

// ChatType selects which waiting queue a user joins.
type ChatType string

const (
	ChatTypeText  ChatType = "text"
	ChatTypeVideo ChatType = "video"
)

// ChatTypes lists every queue the core maintains, in sweep order.
var ChatTypes = []ChatType{ChatTypeText, ChatTypeVideo}

// ParseChatType normalizes a wire value; anything unknown falls back to text.
func ParseChatType(s string) ChatType {
	if ChatType(s) == ChatTypeVideo {
		return ChatTypeVideo
	}
	return ChatTypeText
}

// EndReason is persisted verbatim on the session record.
type EndReason string

const (
	EndReasonUserLeft         EndReason = "user_left"
	EndReasonUserDisconnected EndReason = "user_disconnected"
	EndReasonUserReported     EndReason = "user_reported"
	EndReasonUserBlocked      EndReason = "user_blocked"
	EndReasonUserBanned       EndReason = "user_banned"
	EndReasonPartnerBanned    EndReason = "partner_banned"
	EndReasonStaleCleanup     EndReason = "stale_cleanup"
)

// ParseEndReason validates a client-supplied reason; unknown values map to
// user_left so the persisted taxonomy stays closed.
func ParseEndReason(s string) EndReason {
	switch r := EndReason(s); r {
	case EndReasonUserLeft, EndReasonUserDisconnected, EndReasonUserReported,
		EndReasonUserBlocked, EndReasonUserBanned, EndReasonPartnerBanned,
		EndReasonStaleCleanup:
		return r
	default:
		return EndReasonUserLeft
	}
}

// MatchType tags which matchmaker tier produced a pairing.
type MatchType string

const (
	MatchTypeGenderBased   MatchType = "gender_based"
	MatchTypeInterestBased MatchType = "interest_based"
	MatchTypeRandom        MatchType = "random"
)

// WaitingEntry is one user's matchmaking ticket.
type WaitingEntry struct {
	UserID     string
	ChatType   ChatType
	Interests  []string
	RawGender  string // as supplied by the client
	Gender     Gender // classified form, set on enqueue
	Location   string
	Language   string
	MediaReady bool // video only; local capture confirmed
	JoinedAt   time.Time
}

// ActiveSession is one side of a live pairing. The registry stores one per
// participant so either side resolves its partner in O(1).
type ActiveSession struct {
	SessionID    string
	UserID       string
	PartnerID    string
	ChatType     ChatType
	StartedAt    time.Time
	LastActivity time.Time
	MediaReady   bool // this side's readiness (video)
}

// Sentinel errors callers branch on. Not-found conditions are benign
// (disconnect and explicit end race routinely); participant mismatches
// are validation failures.
var (
	ErrNotQueued      = errors.New("user is not in the waiting queue")
	ErrNotInSession   = errors.New("user is not in an active session")
	ErrNotParticipant = errors.New("user is not a participant of this session")
	ErrAlreadyPaired  = errors.New("user is already in an active session")
)

// SessionStore is the persistent-session collaborator. Calls are
// fire-and-forget from the core's perspective: failures are logged and
// never roll back an in-memory transition.
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID, user1ID, user2ID string, chatType ChatType, startedAt time.Time) error
	EndSession(ctx context.Context, sessionID string, endedAt time.Time, reason EndReason, duration int64) error
	StoreMessage(ctx context.Context, sessionID, senderID, content string, timestamp time.Time) error
}

// ProfileResolver enriches match notifications. Lookup failures degrade to
// placeholder fields, they never abort a committed pairing.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// EventPublisher delivers events to a connected user. At-least-once best
// effort; no ordering is assumed between two publishes.
type EventPublisher interface {
	PublishToUser(userID, event string, payload map[string]interface{})
}
