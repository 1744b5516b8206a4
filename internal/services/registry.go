package services

import (
	"sync"
	"time"
)

// SessionRegistry maps each paired user to its live session. Every pairing
// is stored twice, once per participant, so either side resolves its
// partner in O(1). Removal of one side does not remove the other: callers
// own the paired removal so teardown flows can choose notification order.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*ActiveSession // user id -> session entry
	ended    map[string]time.Time      // session id -> first end time
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*ActiveSession),
		ended:    make(map[string]time.Time),
	}
}

// Pair inserts both directions of a new session. It fails with
// ErrAlreadyPaired if either user is already in a session, leaving the
// registry untouched.
func (r *SessionRegistry) Pair(userA, userB, sessionID string, chatType ChatType, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[userA]; ok {
		return ErrAlreadyPaired
	}
	if _, ok := r.sessions[userB]; ok {
		return ErrAlreadyPaired
	}

	r.sessions[userA] = &ActiveSession{
		SessionID:    sessionID,
		UserID:       userA,
		PartnerID:    userB,
		ChatType:     chatType,
		StartedAt:    startedAt,
		LastActivity: startedAt,
	}
	r.sessions[userB] = &ActiveSession{
		SessionID:    sessionID,
		UserID:       userB,
		PartnerID:    userA,
		ChatType:     chatType,
		StartedAt:    startedAt,
		LastActivity: startedAt,
	}
	return nil
}

// Get returns a copy of the user's session entry.
func (r *SessionRegistry) Get(userID string) (ActiveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[userID]
	if !ok {
		return ActiveSession{}, false
	}
	return *sess, true
}

// Remove deletes the caller's entry and returns it along with the
// now-orphaned partner id, so the caller can notify and remove the
// partner's entry too. Removing an absent entry is a benign no-op.
func (r *SessionRegistry) Remove(userID string) (ActiveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[userID]
	if !ok {
		return ActiveSession{}, false
	}
	delete(r.sessions, userID)
	return *sess, true
}

// IsPartnerOf validates that the user participates in the given session,
// returning the partner id. Messages and signals are relayed only after
// this check passes.
func (r *SessionRegistry) IsPartnerOf(userID, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[userID]
	if !ok {
		return "", ErrNotInSession
	}
	if sess.SessionID != sessionID {
		return "", ErrNotParticipant
	}
	return sess.PartnerID, nil
}

// Touch refreshes the caller's activity timestamp.
func (r *SessionRegistry) Touch(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[userID]; ok {
		sess.LastActivity = time.Now()
	}
}

// MarkMediaReady records that the user's side of a video session reached
// readiness. It also counts as activity.
func (r *SessionRegistry) MarkMediaReady(userID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[userID]
	if !ok {
		return ErrNotInSession
	}
	if sess.SessionID != sessionID {
		return ErrNotParticipant
	}
	sess.MediaReady = true
	sess.LastActivity = time.Now()
	return nil
}

// BeginEnd transitions a session into its ending state. The first caller
// wins and owns the single persisted end write; later callers for the same
// session see false. This is what keeps ended_at from being overwritten
// when both sides tear down concurrently.
func (r *SessionRegistry) BeginEnd(sessionID string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ended[sessionID]; ok {
		return false
	}
	r.ended[sessionID] = at
	return true
}

// PruneEnded drops end markers older than the cutoff so the guard set
// doesn't grow unbounded. Only the janitor calls this.
func (r *SessionRegistry) PruneEnded(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, at := range r.ended {
		if at.Before(cutoff) {
			delete(r.ended, sessionID)
		}
	}
}

// Count returns the number of live pairings.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) / 2
}

// SweepIdle returns one participant per session whose last activity on
// both sides is older than the cutoff. The janitor feeds the result into
// the regular teardown path.
func (r *SessionRegistry) SweepIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var idle []string
	for userID, sess := range r.sessions {
		if seen[sess.SessionID] {
			continue
		}
		seen[sess.SessionID] = true

		latest := sess.LastActivity
		if partner, ok := r.sessions[sess.PartnerID]; ok && partner.LastActivity.After(latest) {
			latest = partner.LastActivity
		}
		if latest.Before(cutoff) {
			idle = append(idle, userID)
		}
	}
	return idle
}

// SweepUnreadyVideo returns one participant per video session started
// before the cutoff where at least one side never reached readiness. An
// unready video call that old is almost certainly abandoned, so it gets a
// tighter bound than the general idle rule.
func (r *SessionRegistry) SweepUnreadyVideo(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	var unready []string
	for userID, sess := range r.sessions {
		if sess.ChatType != ChatTypeVideo || seen[sess.SessionID] {
			continue
		}
		seen[sess.SessionID] = true

		if !sess.StartedAt.Before(cutoff) {
			continue
		}
		bothReady := sess.MediaReady
		if partner, ok := r.sessions[sess.PartnerID]; ok {
			bothReady = bothReady && partner.MediaReady
		}
		if !bothReady {
			unready = append(unready, userID)
		}
	}
	return unready
}
