package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shadowtalk/internal/config"
	"shadowtalk/internal/models"
	"shadowtalk/pkg/logger"
)

// Matchmaker owns the pairing pipeline: it feeds the waiting queue, runs
// the tiered matching pass, and commits pairs into the session registry.
// Persistence and event delivery are collaborators; no store lock is held
// while calling either.
type Matchmaker struct {
	cfg       config.MatchingConfig
	queue     *WaitingQueue
	registry  *SessionRegistry
	presence  *PresenceTracker
	store     SessionStore
	profiles  ProfileResolver
	publisher EventPublisher
}

func NewMatchmaker(
	cfg config.MatchingConfig,
	queue *WaitingQueue,
	registry *SessionRegistry,
	presence *PresenceTracker,
	store SessionStore,
	profiles ProfileResolver,
	publisher EventPublisher,
) *Matchmaker {
	return &Matchmaker{
		cfg:       cfg,
		queue:     queue,
		registry:  registry,
		presence:  presence,
		store:     store,
		profiles:  profiles,
		publisher: publisher,
	}
}

// JoinQueue places the user into the waiting queue for the given chat type
// and immediately runs a matching pass. A user already in an active session
// cannot search again until that session ends.
func (m *Matchmaker) JoinQueue(ctx context.Context, entry WaitingEntry) error {
	if _, paired := m.registry.Get(entry.UserID); paired {
		return ErrAlreadyPaired
	}

	entry.Gender = ClassifyGender(entry.RawGender)
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}
	position := m.queue.Enqueue(entry)
	m.presence.MarkOnline(entry.UserID)

	m.publisher.PublishToUser(entry.UserID, "search_started", map[string]interface{}{
		"chat_type":      string(entry.ChatType),
		"position":       position,
		"estimated_wait": int(m.queue.EstimatedWait(entry.ChatType).Seconds()),
	})

	logger.LogUserAction(entry.UserID, "join_queue", map[string]interface{}{
		"chat_type": string(entry.ChatType),
		"position":  position,
	})

	m.Match(ctx, entry.ChatType)
	return nil
}

// CancelQueue removes the user from the given queue. Cancelling while not
// queued is a no-op beyond the confirmation event.
func (m *Matchmaker) CancelQueue(userID string, chatType ChatType) {
	removed := m.queue.Dequeue(userID, chatType)
	m.publisher.PublishToUser(userID, "search_cancelled", map[string]interface{}{
		"chat_type": string(chatType),
	})
	if removed {
		logger.LogUserAction(userID, "cancel_queue", map[string]interface{}{
			"chat_type": string(chatType),
		})
	}
}

// candidatePair is a pairing decision made against a queue snapshot,
// not yet committed.
type candidatePair struct {
	a, b      WaitingEntry
	matchType MatchType
}

// Match runs one tiered pass over the queue for the given chat type and
// commits every pair it finds. Tiers are tried in order and the pass stops
// at the first tier that yields at least one pair.
func (m *Matchmaker) Match(ctx context.Context, chatType ChatType) int {
	snapshot := m.queue.Snapshot(chatType)
	if len(snapshot) < 2 {
		return 0
	}

	pairs := matchByGender(snapshot)
	if len(pairs) == 0 {
		pairs = matchByInterests(snapshot)
	}
	if len(pairs) == 0 && chatType == ChatTypeVideo {
		pairs = matchFIFO(snapshot)
	}

	committed := 0
	for _, pair := range pairs {
		if m.commitPair(ctx, pair, chatType) {
			committed++
		}
	}
	return committed
}

// matchByGender pairs the head of the male bucket with the head of the
// female bucket, repeatedly. FIFO within each bucket.
func matchByGender(snapshot []WaitingEntry) []candidatePair {
	var males, females []WaitingEntry
	for _, entry := range snapshot {
		switch entry.Gender {
		case GenderMale:
			males = append(males, entry)
		case GenderFemale:
			females = append(females, entry)
		}
	}

	var pairs []candidatePair
	for i := 0; i < len(males) && i < len(females); i++ {
		pairs = append(pairs, candidatePair{a: males[i], b: females[i], matchType: MatchTypeGenderBased})
	}
	return pairs
}

// matchByInterests greedily picks, for each still-unmatched user in queue
// order, the best-scoring partner among later unmatched users. Score is
// the interest overlap count plus a bonus for gender-complementary pairs;
// a zero score never pairs. Ties go to the earliest-queued candidate.
// Greedy: once matched a user is out of the running for the rest of the
// pass.
func matchByInterests(snapshot []WaitingEntry) []candidatePair {
	matched := make([]bool, len(snapshot))
	var pairs []candidatePair

	for i := range snapshot {
		if matched[i] {
			continue
		}
		best := -1
		bestScore := 0
		for j := i + 1; j < len(snapshot); j++ {
			if matched[j] {
				continue
			}
			score := interestOverlap(snapshot[i].Interests, snapshot[j].Interests)
			if Complementary(snapshot[i].Gender, snapshot[j].Gender) {
				score += 3
			}
			if score > bestScore {
				best = j
				bestScore = score
			}
		}
		if best >= 0 {
			matched[i] = true
			matched[best] = true
			pairs = append(pairs, candidatePair{a: snapshot[i], b: snapshot[best], matchType: MatchTypeInterestBased})
		}
	}
	return pairs
}

// matchFIFO takes the two oldest entries unconditionally, preferring
// media-ready ones when at least two exist. Video-only forward-progress
// fallback.
func matchFIFO(snapshot []WaitingEntry) []candidatePair {
	var ready []WaitingEntry
	for _, entry := range snapshot {
		if entry.MediaReady {
			ready = append(ready, entry)
		}
	}
	if len(ready) >= 2 {
		return []candidatePair{{a: ready[0], b: ready[1], matchType: MatchTypeRandom}}
	}
	return []candidatePair{{a: snapshot[0], b: snapshot[1], matchType: MatchTypeRandom}}
}

func interestOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, interest := range a {
		set[interest] = true
	}
	count := 0
	for _, interest := range b {
		if set[interest] {
			count++
		}
	}
	return count
}

func commonInterests(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, interest := range a {
		set[interest] = true
	}
	common := []string{}
	for _, interest := range b {
		if set[interest] {
			common = append(common, interest)
			set[interest] = false
		}
	}
	return common
}

// commitPair turns a candidate pair into a live session: both entries come
// off the queue, both registry directions go in, then persistence and the
// two match notifications happen outside any lock. TakePair is the guard
// against a concurrent pass having already claimed either user.
func (m *Matchmaker) commitPair(ctx context.Context, pair candidatePair, chatType ChatType) bool {
	if !m.queue.TakePair(pair.a.UserID, pair.b.UserID, chatType) {
		return false
	}

	sessionID := uuid.New().String()
	now := time.Now()
	if err := m.registry.Pair(pair.a.UserID, pair.b.UserID, sessionID, chatType, now); err != nil {
		// One of them raced into another session; put the innocent
		// entries back at the tail so they keep searching.
		if _, paired := m.registry.Get(pair.a.UserID); !paired {
			m.queue.Enqueue(pair.a)
		}
		if _, paired := m.registry.Get(pair.b.UserID); !paired {
			m.queue.Enqueue(pair.b)
		}
		return false
	}

	// Persistence must not block or fail a committed pairing. The
	// in-memory registry is authoritative for live routing.
	go func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.CreateSession(persistCtx, sessionID, pair.a.UserID, pair.b.UserID, chatType, now); err != nil {
			logger.LogError(err, "persist_session_create", map[string]interface{}{
				"session_id": sessionID,
			})
		}
	}()

	common := commonInterests(pair.a.Interests, pair.b.Interests)
	m.notifyMatch(ctx, pair.a, pair.b, sessionID, common, pair.matchType)
	m.notifyMatch(ctx, pair.b, pair.a, sessionID, common, pair.matchType)

	logger.LogMatchEvent("match_committed", pair.a.UserID, pair.b.UserID, map[string]interface{}{
		"session_id": sessionID,
		"chat_type":  string(chatType),
		"match_type": string(pair.matchType),
	})
	return true
}

// notifyMatch sends one match_found event describing the partner. Profile
// lookup failure downgrades to placeholder fields; the pairing is already
// committed and must not be rolled back over a cosmetic lookup.
func (m *Matchmaker) notifyMatch(ctx context.Context, to, partner WaitingEntry, sessionID string, common []string, matchType MatchType) {
	profile := m.resolveProfile(ctx, partner)

	m.publisher.PublishToUser(to.UserID, "match_found", map[string]interface{}{
		"session_id":        sessionID,
		"chat_type":         string(to.ChatType),
		"partner_id":        partner.UserID,
		"partner_name":      profile.DisplayName,
		"partner_gender":    profile.Gender,
		"partner_interests": profile.Interests,
		"partner_location":  profile.Location,
		"common_interests":  common,
		"match_type":        string(matchType),
	})
}

func (m *Matchmaker) resolveProfile(ctx context.Context, entry WaitingEntry) models.Profile {
	resolved, err := m.profiles.ResolveProfile(ctx, entry.UserID)
	if err != nil || resolved == nil {
		// A resolver may legitimately return (nil, nil) for an unknown user.
		if err != nil {
			logger.LogError(err, "resolve_partner_profile", map[string]interface{}{
				"user_id": entry.UserID,
			})
		}
		location := entry.Location
		if location == "" {
			location = "Not specified"
		}
		return models.Profile{
			UserID:      entry.UserID,
			DisplayName: "Anonymous",
			Gender:      entry.RawGender,
			Interests:   entry.Interests,
			Location:    location,
		}
	}
	profile := *resolved
	if profile.DisplayName == "" {
		profile.DisplayName = "Anonymous"
	}
	if profile.Location == "" {
		profile.Location = "Not specified"
	}
	return profile
}
