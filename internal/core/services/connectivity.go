package services

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"

	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Verify interface compliance.
var _ driving.Connectivity = (*ConnectivityMonitor)(nil)

// Connectivity states and events.
const (
	StateOnline  = "online"
	StateOffline = "offline"

	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// ReconnectHook runs after every offline to online transition, in
// registration order.
type ReconnectHook func(ctx context.Context)

// ConnectivityMonitor tracks whether the API host is reachable. Only real
// transitions notify subscribers; repeated reports of the same state are
// ignored.
type ConnectivityMonitor struct {
	probe driven.NetworkProbe

	mu        sync.Mutex
	machine   *fsm.FSM
	forced    bool
	listeners map[int]func(bool)
	nextSub   int
	hooks     []ReconnectHook
}

// NewConnectivityMonitor creates a monitor in the given initial state. probe
// may be nil, in which case only SetOnline changes the state.
func NewConnectivityMonitor(probe driven.NetworkProbe, online bool) *ConnectivityMonitor {
	initial := StateOffline
	if online {
		initial = StateOnline
	}
	return &ConnectivityMonitor{
		probe: probe,
		machine: fsm.NewFSM(
			initial,
			fsm.Events{
				{Name: EventConnect, Src: []string{StateOffline}, Dst: StateOnline},
				{Name: EventDisconnect, Src: []string{StateOnline}, Dst: StateOffline},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					logger.Debug("connectivity: %s -> %s", e.Src, e.Dst)
				},
			},
		),
		listeners: make(map[int]func(bool)),
	}
}

// ForceOffline pins the monitor offline regardless of probes, as with the
// --offline flag. Releasing the pin does not change the recorded state.
func (m *ConnectivityMonitor) ForceOffline(forced bool) {
	m.mu.Lock()
	was := m.forced
	m.forced = forced
	m.mu.Unlock()
	if forced && !was {
		m.SetOnline(false)
	}
}

// IsOnline reports the current state.
func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.forced && m.machine.Current() == StateOnline
}

// OnReconnect registers fn to run after every reconnect.
func (m *ConnectivityMonitor) OnReconnect(fn ReconnectHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Subscribe calls fn on every transition until the returned func is called.
func (m *ConnectivityMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SetOnline records an observed state.
func (m *ConnectivityMonitor) SetOnline(online bool) {
	m.transition(context.Background(), online)
}

// Check probes the network, records the result and returns the new state.
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	if m.probe == nil {
		return m.IsOnline()
	}
	m.transition(ctx, m.probe.Reachable(ctx))
	return m.IsOnline()
}

func (m *ConnectivityMonitor) transition(ctx context.Context, online bool) {
	m.mu.Lock()
	if online && m.forced {
		m.mu.Unlock()
		return
	}
	event := EventDisconnect
	if online {
		event = EventConnect
	}
	if !m.machine.Can(event) {
		m.mu.Unlock()
		return
	}
	if err := m.machine.Event(ctx, event); err != nil {
		var none fsm.NoTransitionError
		if !errors.As(err, &none) {
			logger.Warn("connectivity: %s: %v", event, err)
		}
		m.mu.Unlock()
		return
	}
	fns := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	var hooks []ReconnectHook
	if online {
		hooks = append(hooks, m.hooks...)
	}
	m.mu.Unlock()

	if online {
		logger.Info("connectivity: back online")
	} else {
		logger.Info("connectivity: offline")
	}
	for _, fn := range fns {
		fn(online)
	}
	for _, h := range hooks {
		h(ctx)
	}
}
