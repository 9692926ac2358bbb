package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
)

func quickConfig() realtime.ConnectionConfig {
	return realtime.ConnectionConfig{
		SettleDelay:   5 * time.Millisecond,
		ProbeInterval: time.Hour,
		RecoveryDelay: 5 * time.Millisecond,
		Rand:          func() float64 { return 1 },
	}
}

func TestRegistryStartIsIdempotent(t *testing.T) {
	r := NewRegistry(quickConfig())
	defer r.CloseAll()

	viewer := models.Viewer{ID: "1", Role: models.RolePatient}
	first := r.Start(viewer)
	second := r.Start(viewer)
	assert.Same(t, first, second)

	got, ok := r.Get("1")
	require.True(t, ok)
	assert.Same(t, first, got)

	_, ok = r.Get("2")
	assert.False(t, ok)
}

func TestRegistryEndCancelsSessionTimers(t *testing.T) {
	r := NewRegistry(quickConfig())
	defer r.CloseAll()

	sess := r.Start(models.Viewer{ID: "1"})

	var fired atomic.Int32
	sess.Schedule(30*time.Millisecond, func() {
		fired.Add(1)
	})

	r.End("1")
	_, ok := r.Get("1")
	assert.False(t, ok)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.False(t, sess.Conn.Available())
}

func TestRegistryStateObserver(t *testing.T) {
	r := NewRegistry(quickConfig())
	defer r.CloseAll()

	var mu sync.Mutex
	seen := map[string][]realtime.ConnState{}
	r.SetStateObserver(func(viewer models.Viewer, state realtime.ConnState) {
		mu.Lock()
		defer mu.Unlock()
		seen[viewer.ID] = append(seen[viewer.ID], state)
	})

	r.Start(models.Viewer{ID: "1"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		states := seen["1"]
		return len(states) >= 2 && states[len(states)-1] == realtime.StateConnected
	}, time.Second, 5*time.Millisecond)
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry(quickConfig())

	a := r.Start(models.Viewer{ID: "1"})
	b := r.Start(models.Viewer{ID: "2"})

	r.CloseAll()

	_, ok := r.Get("1")
	assert.False(t, ok)
	assert.False(t, a.Conn.Available())
	assert.False(t, b.Conn.Available())
}
