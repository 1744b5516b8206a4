package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shadowtalk/internal/services"
)

func TestPresenceMarkOnlineAndOffline(t *testing.T) {
	p := services.NewPresenceTracker()

	assert.False(t, p.IsOnline("alice"))
	p.MarkOnline("alice")
	assert.True(t, p.IsOnline("alice"))
	assert.Equal(t, 1, p.OnlineCount())

	// Idempotent
	p.MarkOnline("alice")
	assert.Equal(t, 1, p.OnlineCount())

	p.MarkOffline("alice")
	assert.False(t, p.IsOnline("alice"))
	assert.Equal(t, 0, p.OnlineCount())
}

func TestPresenceHeartbeatUnknownUserIsNoop(t *testing.T) {
	p := services.NewPresenceTracker()

	// A heartbeat from a user never marked online must not create an entry.
	p.Heartbeat("ghost")
	assert.False(t, p.IsOnline("ghost"))
}

func TestPresenceSweepStale(t *testing.T) {
	p := services.NewPresenceTracker()
	ttl := 2 * time.Minute

	p.MarkOnline("alice")
	p.MarkOnline("bob")

	// Nobody is stale yet.
	assert.Empty(t, p.SweepStale(time.Now(), ttl))

	// Far enough in the future both leases have expired.
	stale := p.SweepStale(time.Now().Add(3*time.Minute), ttl)
	assert.Len(t, stale, 2)
	assert.False(t, p.IsOnline("alice"))
	assert.False(t, p.IsOnline("bob"))
}

func TestPresenceHeartbeatRefreshesLease(t *testing.T) {
	p := services.NewPresenceTracker()

	p.MarkOnline("alice")
	p.MarkOnline("bob")
	time.Sleep(50 * time.Millisecond)
	p.Heartbeat("alice")

	// Bob's lease is 50ms old, Alice's was just refreshed.
	stale := p.SweepStale(time.Now(), 25*time.Millisecond)
	assert.Equal(t, []string{"bob"}, stale)
	assert.True(t, p.IsOnline("alice"))
	assert.False(t, p.IsOnline("bob"))
}
