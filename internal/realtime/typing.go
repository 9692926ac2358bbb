package realtime

import (
	"sort"
	"sync"
	"time"
)

// TypingTracker keeps the short-lived per-room set of typing participants.
// Every keystroke re-arms that participant's expiry timer instead of
// stacking a new one; entries expire on their own when the user goes quiet.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	rooms    map[string]map[string]*typingEntry
	onChange func(roomID string, typists []string)
	closed   bool
}

// typingEntry carries the participant's expiry timer and its deadline. The
// deadline is the source of truth: an expiry callback that raced a Reset
// checks it under the lock and leaves a re-armed entry alone.
type typingEntry struct {
	timer    *time.Timer
	deadline time.Time
}

// NewTypingTracker builds a tracker with the given expiry window. onChange
// may be nil; when set it observes every change to a room's typing set.
func NewTypingTracker(ttl time.Duration, onChange func(roomID string, typists []string)) *TypingTracker {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &TypingTracker{
		ttl:      ttl,
		rooms:    make(map[string]map[string]*typingEntry),
		onChange: onChange,
	}
}

// Start flags the participant as typing and (re)arms their expiry timer.
func (t *TypingTracker) Start(roomID, participantID string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	room := t.rooms[roomID]
	if room == nil {
		room = make(map[string]*typingEntry)
		t.rooms[roomID] = room
	}

	if entry, ok := room[participantID]; ok {
		entry.deadline = time.Now().Add(t.ttl)
		entry.timer.Reset(t.ttl)
		t.mu.Unlock()
		return
	}

	room[participantID] = &typingEntry{
		deadline: time.Now().Add(t.ttl),
		timer: time.AfterFunc(t.ttl, func() {
			t.expire(roomID, participantID)
		}),
	}
	t.notifyLocked(roomID)
	t.mu.Unlock()
}

// Stop removes the participant immediately, e.g. when a send succeeds.
func (t *TypingTracker) Stop(roomID, participantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(roomID, participantID)
}

func (t *TypingTracker) expire(roomID, participantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	entry, ok := t.rooms[roomID][participantID]
	if !ok {
		return
	}
	// A keystroke may have re-armed the timer while this callback waited on
	// the lock; the entry is only due once its deadline has passed.
	if time.Now().Before(entry.deadline) {
		return
	}
	t.removeLocked(roomID, participantID)
}

func (t *TypingTracker) removeLocked(roomID, participantID string) {
	room := t.rooms[roomID]
	entry, ok := room[participantID]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(room, participantID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	t.notifyLocked(roomID)
}

// Typists returns the room's typing set minus the viewer; a user never sees
// their own indicator.
func (t *TypingTracker) Typists(roomID, excluding string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	typists := make([]string, 0, len(t.rooms[roomID]))
	for id := range t.rooms[roomID] {
		if id != excluding {
			typists = append(typists, id)
		}
	}
	sort.Strings(typists)
	return typists
}

func (t *TypingTracker) notifyLocked(roomID string) {
	if t.onChange == nil {
		return
	}
	typists := make([]string, 0, len(t.rooms[roomID]))
	for id := range t.rooms[roomID] {
		typists = append(typists, id)
	}
	sort.Strings(typists)
	// Deliver off the lock so observers may call back into the tracker.
	go t.onChange(roomID, typists)
}

// Close cancels every expiry timer; no observer fires afterwards.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, room := range t.rooms {
		for _, entry := range room {
			entry.timer.Stop()
		}
	}
	t.rooms = make(map[string]map[string]*typingEntry)
}
