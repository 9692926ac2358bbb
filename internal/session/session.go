package session

import (
	"sync"
	"time"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
)

// Session is one viewer's presence in the chat service: their simulated
// transport connection plus the timers the session owns (delivery echoes).
// Closing a session cancels everything it scheduled.
type Session struct {
	Viewer models.Viewer
	Conn   *realtime.ConnectionManager

	sched *realtime.Scheduler

	mu     sync.Mutex
	closed bool
}

func newSession(viewer models.Viewer, cfg realtime.ConnectionConfig, onState func(models.Viewer, realtime.ConnState)) *Session {
	s := &Session{
		Viewer: viewer,
		sched:  realtime.NewScheduler(),
	}
	var onChange func(realtime.ConnState)
	if onState != nil {
		onChange = func(state realtime.ConnState) {
			onState(viewer, state)
		}
	}
	s.Conn = realtime.NewConnectionManager(cfg, onChange)
	return s
}

// Schedule runs fn after the delay unless the session closes first.
func (s *Session) Schedule(delay time.Duration, fn func()) {
	s.sched.After(delay, fn)
}

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Conn.Close()
	s.sched.Close()
}
