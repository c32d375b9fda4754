package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Durable storage keys.
const (
	SnapshotStoreKey = "stockline.queryCache"
	MutationStoreKey = "stockline.mutations"
)

// SnapshotPersister writes the query cache to durable storage and restores
// it for offline starts.
type SnapshotPersister struct {
	store  driven.KeyValueStore
	online OnlineChecker

	mu      sync.Mutex
	timer   *time.Timer
	stopSub func()
	writes  sync.WaitGroup
}

// NewSnapshotPersister creates a persister over store.
func NewSnapshotPersister(store driven.KeyValueStore, online OnlineChecker) *SnapshotPersister {
	return &SnapshotPersister{store: store, online: online}
}

// Persist writes snap, replacing any previous snapshot.
func (p *SnapshotPersister) Persist(ctx context.Context, snap domain.CacheSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := p.store.Set(ctx, SnapshotStoreKey, raw); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Debug("persist: wrote %d cache entries", len(snap.Entries))
	return nil
}

// Restore returns the stored snapshot when offline. Online starts bootstrap
// from the network and get nil. Unreadable snapshots are logged and treated
// as absent.
func (p *SnapshotPersister) Restore(ctx context.Context) *domain.CacheSnapshot {
	if p.online.IsOnline() {
		return nil
	}
	return p.load(ctx)
}

// Remove deletes the stored snapshot.
func (p *SnapshotPersister) Remove(ctx context.Context) error {
	return p.store.Delete(ctx, SnapshotStoreKey)
}

// Save dehydrates cache and persists the result. Stored entries whose keys
// the cache does not hold are carried over, so a run that only touched some
// queries keeps the rest of the snapshot. Entries the cache removed are not.
func (p *SnapshotPersister) Save(ctx context.Context, cache *QueryCache) error {
	snap, err := cache.Dehydrate()
	if err != nil {
		// Entries that failed to encode are skipped; the rest is still written.
		logger.Warn("persist: %v", err)
	}
	if prev := p.load(ctx); prev != nil && prev.Version == snap.Version {
		seen := make(map[domain.QueryKey]struct{}, len(snap.Entries))
		for _, e := range snap.Entries {
			seen[e.Key] = struct{}{}
		}
		for _, e := range prev.Entries {
			if _, ok := seen[e.Key]; !ok && !cache.wasRemoved(e.Key) {
				snap.Entries = append(snap.Entries, e)
			}
		}
	}
	return p.Persist(ctx, snap)
}

func (p *SnapshotPersister) load(ctx context.Context) *domain.CacheSnapshot {
	raw, err := p.store.Get(ctx, SnapshotStoreKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("persist: read snapshot: %v", err)
		}
		return nil
	}
	var snap domain.CacheSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.Warn("persist: decode snapshot: %v", err)
		return nil
	}
	return &snap
}

// Start persists cache after changes, at most once per throttle interval.
func (p *SnapshotPersister) Start(cache *QueryCache, throttle time.Duration) {
	if throttle <= 0 {
		throttle = domain.DefaultPersistThrottle
	}
	unsub := cache.Subscribe(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.timer != nil || p.stopSub == nil {
			return
		}
		p.writes.Add(1)
		p.timer = time.AfterFunc(throttle, func() {
			defer p.writes.Done()
			p.mu.Lock()
			p.timer = nil
			p.mu.Unlock()
			if err := p.Save(context.Background(), cache); err != nil {
				logger.Warn("persist: %v", err)
			}
		})
	})
	p.mu.Lock()
	p.stopSub = unsub
	p.mu.Unlock()
}

// Flush stops background persistence and writes the cache one last time.
func (p *SnapshotPersister) Flush(ctx context.Context, cache *QueryCache) error {
	p.mu.Lock()
	if p.stopSub != nil {
		p.stopSub()
		p.stopSub = nil
	}
	if p.timer != nil && p.timer.Stop() {
		p.timer = nil
		p.writes.Done()
	}
	p.mu.Unlock()
	p.writes.Wait()
	return p.Save(ctx, cache)
}

// MutationStore persists unsettled mutation records so queued writes survive
// a restart.
type MutationStore struct {
	store   driven.KeyValueStore
	enabled bool
}

// NewMutationStore creates a store. When enabled is false Save clears any
// previously stored queue instead of writing.
func NewMutationStore(store driven.KeyValueStore, enabled bool) *MutationStore {
	return &MutationStore{store: store, enabled: enabled}
}

// Save writes the paused and failed records of m.
func (s *MutationStore) Save(ctx context.Context, m *MutationCache) error {
	if !s.enabled {
		return s.store.Delete(ctx, MutationStoreKey)
	}
	var keep []domain.MutationRecord
	for _, r := range m.Records() {
		if r.Status == domain.MutationPaused || r.Status == domain.MutationPending || r.Status == domain.MutationError {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return s.store.Delete(ctx, MutationStoreKey)
	}
	raw, err := json.Marshal(keep)
	if err != nil {
		return fmt.Errorf("encode mutation queue: %w", err)
	}
	return s.store.Set(ctx, MutationStoreKey, raw)
}

// Restore loads stored records into m and returns how many were added.
func (s *MutationStore) Restore(ctx context.Context, m *MutationCache) (int, error) {
	raw, err := s.store.Get(ctx, MutationStoreKey)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read mutation queue: %w", err)
	}
	var recs []domain.MutationRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return 0, fmt.Errorf("decode mutation queue: %w", err)
	}
	return m.Load(recs), nil
}
