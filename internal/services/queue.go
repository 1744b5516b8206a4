package services

import (
	"container/list"
	"sync"
	"time"

	"shadowtalk/internal/config"
)

// WaitingQueue holds one ordered collection of waiting entries per chat
// type. Order is a doubly-linked list, membership an index map keyed by
// user id, so removal by key is O(1) and the matchmaker never re-filters
// slices.
type WaitingQueue struct {
	mu     sync.Mutex
	queues map[ChatType]*list.List  // elements hold *WaitingEntry
	index  map[string]*list.Element // user id -> element
	homes  map[string]ChatType      // user id -> queue the element lives in
	cfg    config.MatchingConfig
}

func NewWaitingQueue(cfg config.MatchingConfig) *WaitingQueue {
	q := &WaitingQueue{
		queues: make(map[ChatType]*list.List, len(ChatTypes)),
		index:  make(map[string]*list.Element),
		homes:  make(map[string]ChatType),
		cfg:    cfg,
	}
	for _, ct := range ChatTypes {
		q.queues[ct] = list.New()
	}
	return q
}

// Enqueue appends the entry to the tail of its chat-type queue and returns
// the 1-based position. Any pre-existing entry for the same user, in
// either queue, is removed first: a user holds at most one ticket.
func (q *WaitingQueue) Enqueue(entry WaitingEntry) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(entry.UserID)

	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}

	elem := q.queues[entry.ChatType].PushBack(&entry)
	q.index[entry.UserID] = elem
	q.homes[entry.UserID] = entry.ChatType

	return q.queues[entry.ChatType].Len()
}

// Dequeue removes the user's entry from the given queue. Absent entries
// are a benign no-op; it reports whether anything was removed.
func (q *WaitingQueue) Dequeue(userID string, chatType ChatType) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if home, ok := q.homes[userID]; !ok || home != chatType {
		return false
	}
	return q.removeLocked(userID)
}

// Remove drops the user from whichever queue holds them.
func (q *WaitingQueue) Remove(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(userID)
}

func (q *WaitingQueue) removeLocked(userID string) bool {
	elem, ok := q.index[userID]
	if !ok {
		return false
	}
	q.queues[q.homes[userID]].Remove(elem)
	delete(q.index, userID)
	delete(q.homes, userID)
	return true
}

// TakePair atomically removes both users, succeeding only if both are
// still queued under the given chat type. Matchmaker runs triggered by
// enqueue and by the janitor can overlap; this keeps a pair from being
// committed twice.
func (q *WaitingQueue) TakePair(userA, userB string, chatType ChatType) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.homes[userA] != chatType || q.homes[userB] != chatType {
		return false
	}
	if _, ok := q.index[userA]; !ok {
		return false
	}
	if _, ok := q.index[userB]; !ok {
		return false
	}

	q.removeLocked(userA)
	q.removeLocked(userB)
	return true
}

// Position returns the user's 1-based position in the given queue, or 0
// if the user is not queued there.
func (q *WaitingQueue) Position(userID string, chatType ChatType) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if home, ok := q.homes[userID]; !ok || home != chatType {
		return 0
	}

	pos := 1
	for e := q.queues[chatType].Front(); e != nil; e = e.Next() {
		if e.Value.(*WaitingEntry).UserID == userID {
			return pos
		}
		pos++
	}
	return 0
}

// Snapshot returns the queue contents in order. The entries are copies:
// the matchmaker inspects the snapshot and mutates the queue through
// TakePair/Remove, never through the snapshot itself.
func (q *WaitingQueue) Snapshot(chatType ChatType) []WaitingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	l := q.queues[chatType]
	out := make([]WaitingEntry, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		out = append(out, *e.Value.(*WaitingEntry))
	}
	return out
}

// Len returns the number of entries waiting under the given chat type.
func (q *WaitingQueue) Len(chatType ChatType) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queues[chatType].Len()
}

// EstimatedWait is a heuristic, not a promise: a flat base plus a
// per-queued-user increment.
func (q *WaitingQueue) EstimatedWait(chatType ChatType) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg.BaseWait + time.Duration(q.queues[chatType].Len())*q.cfg.PerUserWait
}

// ExpireBefore removes and returns every entry, across both queues, whose
// JoinedAt is before the cutoff. Only the janitor calls this.
func (q *WaitingQueue) ExpireBefore(cutoff time.Time) []WaitingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var expired []WaitingEntry
	for _, ct := range ChatTypes {
		for e := q.queues[ct].Front(); e != nil; {
			next := e.Next()
			entry := e.Value.(*WaitingEntry)
			if entry.JoinedAt.Before(cutoff) {
				expired = append(expired, *entry)
				q.removeLocked(entry.UserID)
			}
			e = next
		}
	}
	return expired
}
