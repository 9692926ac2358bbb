package session

import (
	"sync"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
)

// Registry owns the live sessions, one per viewer. Starting an already
// started viewer returns the existing session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	connCfg  realtime.ConnectionConfig
	onState  func(models.Viewer, realtime.ConnState)
}

func NewRegistry(connCfg realtime.ConnectionConfig) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		connCfg:  connCfg,
	}
}

// SetStateObserver registers the callback invoked on every connection state
// change of any session. Must be called before sessions start.
func (r *Registry) SetStateObserver(onState func(models.Viewer, realtime.ConnState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onState = onState
}

func (r *Registry) Start(viewer models.Viewer) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[viewer.ID]; ok {
		return s
	}
	s := newSession(viewer, r.connCfg, r.onState)
	r.sessions[viewer.ID] = s
	return s
}

func (r *Registry) Get(viewerID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[viewerID]
	return s, ok
}

// End closes and forgets the viewer's session.
func (r *Registry) End(viewerID string) {
	r.mu.Lock()
	s, ok := r.sessions[viewerID]
	delete(r.sessions, viewerID)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// CloseAll tears down every session, for service shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
