package services

import (
	"context"
	"time"

	"shadowtalk/internal/config"
	"shadowtalk/pkg/logger"
)

// Janitor is the background reaper: expired queue entries, idle sessions,
// never-ready video calls, and stale presence all get cleaned on a fixed
// tick. Each phase is isolated so a panic in one never starves the rest.
type Janitor struct {
	cfg        config.MatchingConfig
	matchmaker *Matchmaker
	queue      *WaitingQueue
	registry   *SessionRegistry
	presence   *PresenceTracker
	stop       chan struct{}
}

func NewJanitor(cfg config.MatchingConfig, matchmaker *Matchmaker, queue *WaitingQueue, registry *SessionRegistry, presence *PresenceTracker) *Janitor {
	return &Janitor{
		cfg:        cfg,
		matchmaker: matchmaker,
		queue:      queue,
		registry:   registry,
		presence:   presence,
		stop:       make(chan struct{}),
	}
}

// Run blocks, cleaning on every tick until Stop is called or the context
// is cancelled. Meant to be launched as a goroutine from main.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.JanitorInterval)
	defer ticker.Stop()

	logger.Info("Janitor started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stop:
			return
		case <-ticker.C:
			j.RunCycle(ctx, time.Now())
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stop)
}

// RunCycle executes one full cleanup cycle at the given time. Exported so
// tests can drive cycles without a ticker.
func (j *Janitor) RunCycle(ctx context.Context, now time.Time) {
	j.phase("queue_sweep", func() { j.sweepQueue(now) })
	j.phase("idle_sweep", func() { j.sweepIdleSessions(ctx, now) })
	j.phase("video_sweep", func() { j.sweepUnreadyVideo(ctx, now) })
	j.phase("presence_sweep", func() { j.sweepPresence(ctx, now) })
	j.phase("rematch", func() { j.rematch(ctx) })
	j.registry.PruneEnded(now.Add(-time.Hour))
}

// phase runs one cleanup step with panic isolation.
func (j *Janitor) phase(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]interface{}{
				"phase": name,
				"panic": r,
			}).Error("Janitor phase panicked")
		}
	}()
	fn()
}

// sweepQueue drops waiting entries older than the queue TTL and tells the
// affected users their search expired.
func (j *Janitor) sweepQueue(now time.Time) {
	expired := j.queue.ExpireBefore(now.Add(-j.cfg.QueueTTL))
	for _, entry := range expired {
		j.matchmaker.publisher.PublishToUser(entry.UserID, "search_cancelled", map[string]interface{}{
			"chat_type": string(entry.ChatType),
			"expired":   true,
		})
	}
	if len(expired) > 0 {
		logger.WithField("count", len(expired)).Info("Expired stale queue entries")
	}
}

// sweepIdleSessions force-ends sessions with no activity on either side
// within the idle TTL, through the same path as an explicit end.
func (j *Janitor) sweepIdleSessions(ctx context.Context, now time.Time) {
	for _, userID := range j.registry.SweepIdle(now.Add(-j.cfg.SessionIdleTTL)) {
		if err := j.matchmaker.EndSessionFor(ctx, userID, EndReasonStaleCleanup, true); err != nil {
			logger.LogError(err, "janitor_idle_teardown", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

// sweepUnreadyVideo applies the tighter bound for video sessions that
// never reached readiness on both sides.
func (j *Janitor) sweepUnreadyVideo(ctx context.Context, now time.Time) {
	for _, userID := range j.registry.SweepUnreadyVideo(now.Add(-j.cfg.VideoReadyTTL)) {
		if err := j.matchmaker.EndSessionFor(ctx, userID, EndReasonStaleCleanup, true); err != nil {
			logger.LogError(err, "janitor_video_teardown", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

// sweepPresence expires silent users and cascades each one through the
// same teardown a disconnect would trigger.
func (j *Janitor) sweepPresence(ctx context.Context, now time.Time) {
	for _, userID := range j.presence.SweepStale(now, j.cfg.PresenceTTL) {
		j.queue.Remove(userID)
		if err := j.matchmaker.EndSessionFor(ctx, userID, EndReasonUserDisconnected, false); err == nil {
			logger.LogUserAction(userID, "presence_expired_teardown", nil)
		}
	}
}

// rematch runs a matching pass per chat type so users freed up by the
// sweeps, or left over from earlier passes, get paired without waiting
// for the next enqueue.
func (j *Janitor) rematch(ctx context.Context) {
	for _, chatType := range ChatTypes {
		j.matchmaker.Match(ctx, chatType)
	}
}
