package realtime

import (
	"math/rand"
	"sync"
	"time"
)

type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// ConnectionConfig carries the simulation timings. Zero durations are
// replaced with the defaults the product uses; DropChance is taken as
// given, so zero turns the flakiness off entirely.
type ConnectionConfig struct {
	SettleDelay   time.Duration // disconnected -> connected on activation
	ProbeInterval time.Duration // how often the flakiness supervisor ticks
	DropChance    float64       // chance per tick of a forced drop, 0 disables
	RecoveryDelay time.Duration // forced drop -> connected again
	Rand          func() float64
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 30 * time.Second
	}
	if c.DropChance < 0 {
		c.DropChance = 0
	}
	if c.RecoveryDelay <= 0 {
		c.RecoveryDelay = 2 * time.Second
	}
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	return c
}

// ConnectionManager simulates one session's duplex transport:
// disconnected -> connecting -> connected, with a supervisory ticker that
// occasionally drops the link and recovers it. Transport-gated operations
// consult Available and fail instead of queueing.
type ConnectionManager struct {
	mu       sync.Mutex
	state    ConnState
	cfg      ConnectionConfig
	onChange func(ConnState)
	sched    *Scheduler
	stop     chan struct{}
	closed   bool
}

// NewConnectionManager starts the lifecycle immediately: the state moves to
// connecting and settles to connected after the configured delay. onChange
// may be nil; when set it is invoked on every transition, never after Close.
func NewConnectionManager(cfg ConnectionConfig, onChange func(ConnState)) *ConnectionManager {
	m := &ConnectionManager{
		state:    StateDisconnected,
		cfg:      cfg.withDefaults(),
		onChange: onChange,
		sched:    NewScheduler(),
		stop:     make(chan struct{}),
	}

	m.transition(StateConnecting)
	m.sched.After(m.cfg.SettleDelay, func() {
		m.transition(StateConnected)
	})
	go m.supervise()

	return m
}

// supervise models transient network flakiness.
func (m *ConnectionManager) supervise() {
	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if m.cfg.Rand() >= m.cfg.DropChance {
				continue
			}
			m.Drop()
		}
	}
}

// Drop forces the link down; it recovers on its own after the recovery delay.
func (m *ConnectionManager) Drop() {
	if !m.transition(StateDisconnected) {
		return
	}
	m.sched.After(m.cfg.RecoveryDelay, func() {
		m.transition(StateConnected)
	})
}

func (m *ConnectionManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Available reports whether send/create/upload operations may proceed.
func (m *ConnectionManager) Available() bool {
	return m.State() == StateConnected
}

func (m *ConnectionManager) transition(to ConnState) bool {
	m.mu.Lock()
	if m.closed || m.state == to {
		m.mu.Unlock()
		return false
	}
	m.state = to
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(to)
	}
	return true
}

// Close tears the session's transport down and cancels every pending timer.
// No state callback fires afterwards.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.state = StateDisconnected
	m.mu.Unlock()

	close(m.stop)
	m.sched.Close()
}
