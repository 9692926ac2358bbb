package realtime

import (
	"sync"
	"time"
)

// Scheduler tracks one-shot timers for a session so teardown can cancel all
// of them. A callback never fires after Close returns its owner unusable;
// late timers see the closed flag and bail out.
type Scheduler struct {
	mu     sync.Mutex
	closed bool
	seq    int
	timers map[int]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[int]*time.Timer),
	}
}

// After runs fn once the delay elapses, unless the scheduler is closed first.
func (s *Scheduler) After(delay time.Duration, fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	id := s.seq
	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	s.timers[id] = timer
	s.mu.Unlock()
}

// Pending reports how many timers have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels every outstanding timer.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
