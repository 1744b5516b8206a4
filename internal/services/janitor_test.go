package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowtalk/internal/services"
)

func TestJanitorSweepsExpiredQueueEntries(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	core.queue.Enqueue(services.WaitingEntry{UserID: "stale", ChatType: services.ChatTypeText, JoinedAt: now.Add(-11 * time.Minute)})
	core.queue.Enqueue(services.WaitingEntry{UserID: "fresh", ChatType: services.ChatTypeText, JoinedAt: now})

	janitor.RunCycle(context.Background(), now)

	assert.Equal(t, 0, core.queue.Position("stale", services.ChatTypeText))
	assert.Equal(t, 1, core.queue.Position("fresh", services.ChatTypeText))

	cancelled, ok := core.publisher.lastEvent("stale", "search_cancelled")
	require.True(t, ok)
	assert.Equal(t, true, cancelled.Payload["expired"])
}

func TestJanitorTearsDownIdleSessions(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	require.NoError(t, core.registry.Pair("alice", "bob", "sess-idle", services.ChatTypeText, now.Add(-6*time.Minute)))
	require.NoError(t, core.registry.Pair("carol", "dave", "sess-live", services.ChatTypeText, now))

	janitor.RunCycle(context.Background(), now)

	assert.Equal(t, 1, core.registry.Count())
	_, stillLive := core.registry.Get("carol")
	assert.True(t, stillLive)

	ended, ok := core.publisher.lastEvent("bob", "session_ended")
	require.True(t, ok)
	assert.Equal(t, "stale_cleanup", ended.Payload["reason"])
}

func TestJanitorTearsDownNeverReadyVideo(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	// Three minutes old: under the 5m idle bound but over the 2m video
	// readiness bound.
	require.NoError(t, core.registry.Pair("alice", "bob", "sess-unready", services.ChatTypeVideo, now.Add(-3*time.Minute)))

	require.NoError(t, core.registry.Pair("carol", "dave", "sess-ready", services.ChatTypeVideo, now.Add(-3*time.Minute)))
	require.NoError(t, core.registry.MarkMediaReady("carol", "sess-ready"))
	require.NoError(t, core.registry.MarkMediaReady("dave", "sess-ready"))

	janitor.RunCycle(context.Background(), now)

	_, gone := core.registry.Get("alice")
	assert.False(t, gone)
	_, kept := core.registry.Get("carol")
	assert.True(t, kept)
}

func TestJanitorPresenceCascade(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	// Queued user whose presence lease will lapse.
	core.presence.MarkOnline("queued")
	core.queue.Enqueue(services.WaitingEntry{UserID: "queued", ChatType: services.ChatTypeText, JoinedAt: now})

	// Paired user whose lease will lapse too; the partner is swept as
	// well in the same pass since both leases date from now.
	core.presence.MarkOnline("gone")
	core.presence.MarkOnline("partner")
	require.NoError(t, core.registry.Pair("gone", "partner", "sess-1", services.ChatTypeText, now))

	janitor.RunCycle(context.Background(), now.Add(3*time.Minute))

	assert.Equal(t, 0, core.queue.Len(services.ChatTypeText))
	assert.Equal(t, 0, core.registry.Count())
	assert.False(t, core.presence.IsOnline("queued"))
	assert.False(t, core.presence.IsOnline("gone"))

	// Whichever side was swept first ended the session; the partner was
	// notified while still registered.
	ended, ok := core.publisher.lastEvent("partner", "session_ended")
	if !ok {
		ended, ok = core.publisher.lastEvent("gone", "session_ended")
	}
	require.True(t, ok)
	assert.Equal(t, "user_disconnected", ended.Payload["reason"])
}

func TestJanitorPhaseFailureDoesNotAbortCycle(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	// The queue sweep panics in the publisher; the idle sweep after it
	// must still run.
	core.publisher.panicOn = "search_cancelled"
	core.queue.Enqueue(services.WaitingEntry{UserID: "stale", ChatType: services.ChatTypeText, JoinedAt: now.Add(-11 * time.Minute)})
	require.NoError(t, core.registry.Pair("alice", "bob", "sess-idle", services.ChatTypeText, now.Add(-6*time.Minute)))

	assert.NotPanics(t, func() {
		janitor.RunCycle(context.Background(), now)
	})
	assert.Equal(t, 0, core.registry.Count())
}

func TestJanitorRematchesAfterSweeps(t *testing.T) {
	core := newTestCore()
	janitor := core.newJanitor()
	now := time.Now()

	// Two compatible users sitting in the queue; no enqueue happens, so
	// only the janitor's matching pass can pair them.
	core.queue.Enqueue(services.WaitingEntry{UserID: "m1", ChatType: services.ChatTypeText, Gender: services.GenderMale, JoinedAt: now})
	core.queue.Enqueue(services.WaitingEntry{UserID: "f1", ChatType: services.ChatTypeText, Gender: services.GenderFemale, JoinedAt: now})

	janitor.RunCycle(context.Background(), now)

	assert.Equal(t, 1, core.registry.Count())
	_, ok := core.publisher.lastEvent("m1", "match_found")
	assert.True(t, ok)
}
