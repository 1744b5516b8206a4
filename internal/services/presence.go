package services

import (
	"sync"
	"time"
)

// PresenceTracker records which users are connected and when each last
// heartbeat arrived. It owns no cross-store cleanup: the Janitor cascades
// staleness into the queue and registry so cleanup ordering lives in one
// place.
type PresenceTracker struct {
	mu     sync.Mutex
	online map[string]time.Time // user id -> last heartbeat
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		online: make(map[string]time.Time),
	}
}

// MarkOnline is idempotent; it also counts as a heartbeat.
func (p *PresenceTracker) MarkOnline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = time.Now()
}

// Heartbeat refreshes the user's heartbeat. A heartbeat for a user that
// was never marked online is a silent no-op.
func (p *PresenceTracker) Heartbeat(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.online[userID]; ok {
		p.online[userID] = time.Now()
	}
}

// MarkOffline is idempotent.
func (p *PresenceTracker) MarkOffline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

// IsOnline reports whether the user is currently in the online set.
func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.online[userID]
	return ok
}

// OnlineCount returns the size of the online set.
func (p *PresenceTracker) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.online)
}

// SweepStale marks offline every user whose last heartbeat is older than
// ttl relative to now, and returns them. The caller cascades the result
// into queue and session cleanup.
func (p *PresenceTracker) SweepStale(now time.Time, ttl time.Duration) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stale []string
	for userID, lastBeat := range p.online {
		if now.Sub(lastBeat) > ttl {
			stale = append(stale, userID)
		}
	}
	for _, userID := range stale {
		delete(p.online, userID)
	}
	return stale
}
