package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"shadowtalk/internal/config"
	"shadowtalk/internal/models"
	"shadowtalk/internal/services"
)

// MockSessionStore is a testify mock of the persistence collaborator.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(ctx context.Context, sessionID, user1ID, user2ID string, chatType services.ChatType, startedAt time.Time) error {
	args := m.Called(ctx, sessionID, user1ID, user2ID, chatType, startedAt)
	return args.Error(0)
}

func (m *MockSessionStore) EndSession(ctx context.Context, sessionID string, endedAt time.Time, reason services.EndReason, duration int64) error {
	args := m.Called(ctx, sessionID, endedAt, reason, duration)
	return args.Error(0)
}

func (m *MockSessionStore) StoreMessage(ctx context.Context, sessionID, senderID, content string, timestamp time.Time) error {
	args := m.Called(ctx, sessionID, senderID, content, timestamp)
	return args.Error(0)
}

// MockProfileResolver is a testify mock of the profile lookup collaborator.
type MockProfileResolver struct {
	mock.Mock
}

func (m *MockProfileResolver) ResolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// recordedEvent is one captured publication.
type recordedEvent struct {
	Event   string
	Payload map[string]interface{}
}

// recordingPublisher captures published events per user for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]recordedEvent
	// panicOn makes the publisher panic for one event type, to exercise
	// failure isolation.
	panicOn string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]recordedEvent)}
}

func (p *recordingPublisher) PublishToUser(userID, event string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panicOn != "" && event == p.panicOn {
		panic("publisher failure: " + event)
	}
	p.events[userID] = append(p.events[userID], recordedEvent{Event: event, Payload: payload})
}

func (p *recordingPublisher) eventsFor(userID string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events[userID]...)
}

// lastEvent returns the most recent event of the given type for the user.
func (p *recordingPublisher) lastEvent(userID, event string) (recordedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events[userID]) - 1; i >= 0; i-- {
		if p.events[userID][i].Event == event {
			return p.events[userID][i], true
		}
	}
	return recordedEvent{}, false
}

func (p *recordingPublisher) countEvents(userID, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events[userID] {
		if e.Event == event {
			n++
		}
	}
	return n
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		QueueTTL:        10 * time.Minute,
		SessionIdleTTL:  5 * time.Minute,
		VideoReadyTTL:   2 * time.Minute,
		PresenceTTL:     2 * time.Minute,
		JanitorInterval: time.Minute,
		BaseWait:        10 * time.Second,
		PerUserWait:     5 * time.Second,
	}
}

// testCore bundles the in-memory stores and their collaborators.
type testCore struct {
	queue      *services.WaitingQueue
	registry   *services.SessionRegistry
	presence   *services.PresenceTracker
	store      *MockSessionStore
	profiles   *MockProfileResolver
	publisher  *recordingPublisher
	matchmaker *services.Matchmaker
}

func newTestCore() *testCore {
	cfg := testMatchingConfig()
	core := &testCore{
		queue:     services.NewWaitingQueue(cfg),
		registry:  services.NewSessionRegistry(),
		presence:  services.NewPresenceTracker(),
		store:     new(MockSessionStore),
		profiles:  new(MockProfileResolver),
		publisher: newRecordingPublisher(),
	}
	core.matchmaker = services.NewMatchmaker(
		cfg, core.queue, core.registry, core.presence,
		core.store, core.profiles, core.publisher,
	)

	// Default expectations: persistence succeeds, profiles are missing so
	// notifications fall back to entry data. Tests override as needed.
	core.store.On("CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	core.store.On("EndSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	core.store.On("StoreMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	core.profiles.On("ResolveProfile", mock.Anything, mock.Anything).Return(nil, context.Canceled).Maybe()

	return core
}

func (c *testCore) newJanitor() *services.Janitor {
	return services.NewJanitor(testMatchingConfig(), c.matchmaker, c.queue, c.registry, c.presence)
}
