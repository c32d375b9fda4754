package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.SyncStatus = (*SyncStatusService)(nil)

// SyncStatusService derives the sync indicator from the mutation queue, the
// pollers, the server status query and connectivity. Subscribers are told
// whenever the derived state changes.
type SyncStatusService struct {
	cache     *QueryCache
	mutations *MutationCache
	conn      *ConnectivityMonitor
	pollers   []*WatermarkPoller
	api       driven.InventoryAPI

	mu        sync.Mutex
	last      domain.SyncState
	listeners map[int]func(domain.SyncState)
	nextSub   int
}

// NewSyncStatusService creates the aggregator and subscribes it to its inputs.
func NewSyncStatusService(cache *QueryCache, mutations *MutationCache, conn *ConnectivityMonitor, pollers []*WatermarkPoller, api driven.InventoryAPI) *SyncStatusService {
	s := &SyncStatusService{
		cache:     cache,
		mutations: mutations,
		conn:      conn,
		pollers:   pollers,
		api:       api,
		listeners: make(map[int]func(domain.SyncState)),
	}
	s.last = s.State()
	mutations.Subscribe(s.recompute)
	cache.Subscribe(s.recompute)
	conn.Subscribe(func(bool) { s.recompute() })
	for _, p := range pollers {
		p.OnChange(s.recompute)
	}
	return s
}

// Inputs gathers the current observations.
func (s *SyncStatusService) Inputs() domain.SyncInputs {
	in := domain.SyncInputs{
		ClientPending:  s.mutations.PendingCount(),
		ClientHasError: s.mutations.HasError(),
		PollerError:    AnyPollerError(s.pollers),
		IsOnline:       s.conn.IsOnline(),
	}
	if st, err := Peek[domain.ServerSyncStatus](s.cache, domain.ServerStatusKey()); err == nil {
		in.Server = &st.Data
	}
	return in
}

// State returns the current summary without network access.
func (s *SyncStatusService) State() domain.SyncState {
	return domain.DeriveSyncState(s.Inputs())
}

// Refresh fetches the server status and returns the new summary. While
// offline the cached status is used.
func (s *SyncStatusService) Refresh(ctx context.Context) (domain.SyncState, error) {
	_, err := Query(ctx, s.cache, domain.ServerStatusKey(), s.api.ServerStatus)
	if err != nil && s.conn.IsOnline() {
		return s.State(), err
	}
	return s.State(), nil
}

// Subscribe calls fn with every new summary until the returned func is called.
func (s *SyncStatusService) Subscribe(fn func(domain.SyncState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *SyncStatusService) recompute() {
	st := s.State()
	s.mu.Lock()
	if st == s.last {
		s.mu.Unlock()
		return
	}
	s.last = st
	fns := make([]func(domain.SyncState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
