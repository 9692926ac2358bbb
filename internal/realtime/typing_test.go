package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingStartAndStop(t *testing.T) {
	tracker := NewTypingTracker(time.Hour, nil)
	defer tracker.Close()

	tracker.Start("room1", "alice")
	tracker.Start("room1", "bob")
	tracker.Start("room2", "carol")

	assert.Equal(t, []string{"bob"}, tracker.Typists("room1", "alice"))
	assert.Equal(t, []string{"alice", "bob"}, tracker.Typists("room1", "carol"))
	assert.Empty(t, tracker.Typists("room2", "carol"))

	tracker.Stop("room1", "bob")
	assert.Empty(t, tracker.Typists("room1", "alice"))
}

func TestTypingExpires(t *testing.T) {
	tracker := NewTypingTracker(20*time.Millisecond, nil)
	defer tracker.Close()

	tracker.Start("room1", "alice")
	assert.Equal(t, []string{"alice"}, tracker.Typists("room1", ""))

	require.Eventually(t, func() bool {
		return len(tracker.Typists("room1", "")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingKeystrokeAtExpiryKeepsFullWindow(t *testing.T) {
	tracker := NewTypingTracker(10*time.Millisecond, nil)
	defer tracker.Close()

	// Land keystrokes right around the expiry instant so the re-arm races
	// the in-flight expiry callback; the typist must always get a fresh
	// window after the last keystroke.
	tracker.Start("room1", "alice")
	for i := 0; i < 200; i++ {
		time.Sleep(time.Duration(9+i%3) * time.Millisecond)
		tracker.Start("room1", "alice")
		time.Sleep(3 * time.Millisecond)
		require.Equal(t, []string{"alice"}, tracker.Typists("room1", ""),
			"typist lost inside the debounce window on iteration %d", i)
	}

	require.Eventually(t, func() bool {
		return len(tracker.Typists("room1", "")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingRestartExtendsExpiry(t *testing.T) {
	tracker := NewTypingTracker(40*time.Millisecond, nil)
	defer tracker.Close()

	tracker.Start("room1", "alice")
	time.Sleep(25 * time.Millisecond)
	tracker.Start("room1", "alice")
	time.Sleep(25 * time.Millisecond)

	// The original TTL has elapsed but the restart re-armed the timer.
	assert.Equal(t, []string{"alice"}, tracker.Typists("room1", ""))

	require.Eventually(t, func() bool {
		return len(tracker.Typists("room1", "")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingNotifiesObserver(t *testing.T) {
	var mu sync.Mutex
	var last []string
	notified := make(chan struct{}, 16)

	tracker := NewTypingTracker(time.Hour, func(roomID string, typists []string) {
		mu.Lock()
		last = typists
		mu.Unlock()
		notified <- struct{}{}
	})
	defer tracker.Close()

	tracker.Start("room1", "alice")
	<-notified
	mu.Lock()
	assert.Equal(t, []string{"alice"}, last)
	mu.Unlock()

	tracker.Stop("room1", "alice")
	<-notified
	mu.Lock()
	assert.Empty(t, last)
	mu.Unlock()
}

func TestTypingCloseCancelsTimers(t *testing.T) {
	notified := make(chan []string, 16)
	tracker := NewTypingTracker(20*time.Millisecond, func(_ string, typists []string) {
		notified <- typists
	})

	tracker.Start("room1", "alice")
	<-notified

	tracker.Close()
	time.Sleep(60 * time.Millisecond)

	// The expiry timer was cancelled, so no empty-set notification arrives.
	select {
	case typists := <-notified:
		t.Fatalf("observer fired after close: %v", typists)
	default:
	}
	assert.Empty(t, tracker.Typists("room1", ""))
}
