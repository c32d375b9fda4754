package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"
	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/logger"
)

// FetchFunc loads the value of one query from the server.
type FetchFunc func(ctx context.Context) (any, error)

// Resolver returns the fetch function for a key that was restored from a
// snapshot or observed before any read registered one.
type Resolver func(key domain.QueryKey) (FetchFunc, bool)

// OnlineChecker reports connectivity.
type OnlineChecker interface {
	IsOnline() bool
}

type alwaysOnline struct{}

func (alwaysOnline) IsOnline() bool { return true }

// QueryCacheOptions configures a QueryCache.
type QueryCacheOptions struct {
	// StaleTime is how long a fetched value is served without refetching.
	// Zero means every read refetches while online.
	StaleTime time.Duration
	// GCTime is how long an unobserved entry is kept. Zero disables eviction.
	GCTime time.Duration
	// GCInterval is how often expired entries are swept. Defaults to a minute.
	GCInterval time.Duration
	// Retries bounds automatic refetch attempts after the first failure.
	Retries int
	// RetryInterval is the initial backoff between attempts.
	RetryInterval time.Duration
	// Online gates retries and eviction. Nil means always online.
	Online OnlineChecker
	// Now overrides the clock in tests.
	Now func() time.Time
}

// QueryState describes one cache entry for status output and tests.
type QueryState struct {
	Key       domain.QueryKey
	HasValue  bool
	UpdatedAt time.Time
	Stale     bool
	Fetching  bool
	Observers int
	Err       error
}

// EntryState is a verbatim copy of one cache entry, captured before an
// optimistic patch and written back on rollback.
type EntryState struct {
	Key       domain.QueryKey
	Exists    bool
	HasValue  bool
	Value     any
	Raw       json.RawMessage
	UpdatedAt time.Time
	Stale     bool
	Err       error
}

type queryEntry struct {
	key       domain.QueryKey
	value     any
	raw       json.RawMessage
	hasValue  bool
	updatedAt time.Time
	stale     bool
	err       error
	fetching  bool
	gen       uint64
	cancel    context.CancelFunc
	observers int
	fetch     FetchFunc
	lastUsed  time.Time
}

// QueryCache holds server query results keyed by domain.QueryKey.
// All reads hand out deep copies and all writes store deep copies, so no
// caller can mutate a cached value in place.
type QueryCache struct {
	opts QueryCacheOptions

	mu        sync.Mutex
	entries   map[domain.QueryKey]*queryEntry
	resolvers map[domain.QueryFamily]Resolver
	listeners map[int]func()
	nextSub   int
	// Filters passed to RemoveQueries, so persisted copies of removed
	// entries are not carried into the next snapshot.
	removed []domain.QueryFilter

	flights singleflight.Group
	gc      *gocache.Cache
}

// NewQueryCache creates an empty cache.
func NewQueryCache(opts QueryCacheOptions) *QueryCache {
	if opts.Online == nil {
		opts.Online = alwaysOnline{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	c := &QueryCache{
		opts:      opts,
		entries:   make(map[domain.QueryKey]*queryEntry),
		resolvers: make(map[domain.QueryFamily]Resolver),
		listeners: make(map[int]func()),
	}
	if opts.GCTime > 0 {
		interval := opts.GCInterval
		if interval <= 0 {
			interval = time.Minute
		}
		c.gc = gocache.New(opts.GCTime, interval)
		c.gc.OnEvicted(c.onEvicted)
	}
	return c
}

// RegisterResolver installs the fetch function factory for a family.
func (c *QueryCache) RegisterResolver(f domain.QueryFamily, r Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolvers[f] = r
}

// Subscribe registers fn to be called after every cache change.
func (c *QueryCache) Subscribe(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *QueryCache) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *QueryCache) entryLocked(key domain.QueryKey) *queryEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &queryEntry{key: key, lastUsed: c.opts.Now()}
		c.entries[key] = e
		c.armGC(key, c.opts.GCTime)
	}
	return e
}

func (c *QueryCache) armGC(key domain.QueryKey, d time.Duration) {
	if c.gc != nil {
		c.gc.Set(key.String(), key, d)
	}
}

func (c *QueryCache) onEvicted(_ string, v any) {
	key, ok := v.(domain.QueryKey)
	if !ok {
		return
	}
	c.mu.Lock()
	e := c.entries[key]
	if e == nil || e.observers > 0 || e.fetching {
		c.mu.Unlock()
		return
	}
	if !c.opts.Online.IsOnline() {
		c.mu.Unlock()
		c.armGC(key, c.opts.GCTime)
		return
	}
	if idle := c.opts.Now().Sub(e.lastUsed); idle < c.opts.GCTime {
		c.mu.Unlock()
		c.armGC(key, c.opts.GCTime-idle)
		return
	}
	delete(c.entries, key)
	c.mu.Unlock()
	logger.Debug("cache: evicted %s", key)
	c.notify()
}

func (c *QueryCache) fetcherLocked(e *queryEntry) FetchFunc {
	if e.fetch != nil {
		return e.fetch
	}
	if r, ok := c.resolvers[e.key.Family]; ok {
		if fn, ok := r(e.key); ok {
			e.fetch = fn
			return fn
		}
	}
	return nil
}

// Observe marks key as active until the returned function is called.
// Active queries are refetched on invalidation and on reconnect.
func (c *QueryCache) Observe(key domain.QueryKey, fetch FetchFunc) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.observers++
	if fetch != nil {
		e.fetch = fetch
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[key]; ok && e.observers > 0 {
				e.observers--
				e.lastUsed = c.opts.Now()
				if e.observers == 0 {
					c.armGC(key, c.opts.GCTime)
				}
			}
		})
	}
}

// Fetch loads key from the server. Concurrent calls for the same key share
// one request. If the entry is cancelled while the request is in flight the
// result is dropped and domain.ErrQueryCancelled is returned.
func (c *QueryCache) Fetch(ctx context.Context, key domain.QueryKey, fetch FetchFunc) error {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetch = fetch
	}
	fn := c.fetcherLocked(e)
	gen := e.gen
	c.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("no fetcher registered for %s", key)
	}

	_, err, _ := c.flights.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		return nil, c.runFetch(ctx, key, gen, fn)
	})
	return err
}

func (c *QueryCache) runFetch(ctx context.Context, key domain.QueryKey, gen uint64, fn FetchFunc) error {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	e := c.entries[key]
	if e == nil || e.gen != gen {
		c.mu.Unlock()
		return domain.ErrQueryCancelled
	}
	e.fetching = true
	e.cancel = cancel
	c.mu.Unlock()

	var value any
	op := func() error {
		v, err := fn(fctx)
		if err != nil {
			if !domain.IsRetryable(err) || !c.opts.Online.IsOnline() {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryInterval
	retries := c.opts.Retries
	if retries < 0 {
		retries = 0
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), fctx))

	c.mu.Lock()
	e = c.entries[key]
	if e == nil || e.gen != gen {
		c.mu.Unlock()
		logger.Debug("cache: dropped cancelled fetch of %s", key)
		return domain.ErrQueryCancelled
	}
	e.fetching = false
	e.cancel = nil
	if err != nil {
		e.err = err
		c.mu.Unlock()
		logger.Debug("cache: fetch %s failed: %v", key, err)
		c.notify()
		return err
	}
	e.value = value
	e.raw = nil
	e.hasValue = true
	e.updatedAt = c.opts.Now()
	e.stale = false
	e.err = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// Query returns the cached value for key, fetching it first unless the
// cached value is still fresh. Offline it never fetches: cached data is
// served as is, and a missing value is ErrNoCachedData wrapping ErrOffline.
// A failed refresh leaves the previous value in place and is reported in
// Cached.Err; an error is returned only when there is nothing to serve.
func Query[T any](ctx context.Context, c *QueryCache, key domain.QueryKey, fetch func(context.Context) (T, error)) (domain.Cached[T], error) {
	var fn FetchFunc
	if fetch != nil {
		fn = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if fn != nil {
		e.fetch = fn
	}
	now := c.opts.Now()
	e.lastUsed = now
	fresh := e.hasValue && !e.stale && c.opts.StaleTime > 0 && now.Sub(e.updatedAt) < c.opts.StaleTime
	offlineWithData := e.hasValue && !c.opts.Online.IsOnline()
	c.mu.Unlock()

	if !c.opts.Online.IsOnline() {
		if !offlineWithData {
			return domain.Cached[T]{}, fmt.Errorf("%w: %w", domain.ErrNoCachedData, domain.ErrOffline)
		}
		return Peek[T](c, key)
	}
	if !fresh {
		_ = c.Fetch(ctx, key, fn)
	}
	return Peek[T](c, key)
}

// Peek returns the cached value for key without fetching.
func Peek[T any](c *QueryCache, key domain.QueryKey) (domain.Cached[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out domain.Cached[T]
	e, ok := c.entries[key]
	if !ok {
		return out, domain.ErrNoCachedData
	}
	v, ok, err := typedLocked[T](e)
	if err != nil {
		return out, err
	}
	if !ok {
		if e.err != nil {
			return out, fmt.Errorf("%w: %w", domain.ErrNoCachedData, e.err)
		}
		return out, domain.ErrNoCachedData
	}
	out.Data = v
	out.UpdatedAt = e.updatedAt
	out.Stale = e.stale
	out.Err = e.err
	return out, nil
}

// GetQueryData returns a copy of the cached value for key.
func GetQueryData[T any](c *QueryCache, key domain.QueryKey) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	v, ok, err := typedLocked[T](e)
	if err != nil || !ok {
		return zero, false
	}
	return v, true
}

// SetQueryData stores a copy of v under key.
func SetQueryData[T any](c *QueryCache, key domain.QueryKey, v T) {
	var stored any
	var cp T
	if err := deepcopy.Copy(&cp, v); err != nil {
		logger.Warn("cache: copy %s: %v", key, err)
		stored = copyAny(v)
	} else {
		stored = cp
	}
	c.mu.Lock()
	e := c.entryLocked(key)
	e.value = stored
	e.raw = nil
	e.hasValue = true
	e.updatedAt = c.opts.Now()
	c.mu.Unlock()
	c.notify()
}

// UpdateQueryData applies fn to a copy of every cached value matched by
// filter and stores the result when fn reports a change. Entries without a
// value, or whose value is not a T, are skipped. It returns the number of
// entries changed.
func UpdateQueryData[T any](c *QueryCache, filter domain.QueryFilter, fn func(key domain.QueryKey, old T) (T, bool)) int {
	c.mu.Lock()
	changed := 0
	for key, e := range c.entries {
		if !filter.Matches(key) {
			continue
		}
		old, ok, err := typedLocked[T](e)
		if err != nil || !ok {
			continue
		}
		next, did := fn(key, old)
		if !did {
			continue
		}
		e.value = next
		e.raw = nil
		e.updatedAt = c.opts.Now()
		changed++
	}
	c.mu.Unlock()
	if changed > 0 {
		c.notify()
	}
	return changed
}

// typedLocked decodes a hydrated entry on first access and returns a copy.
func typedLocked[T any](e *queryEntry) (T, bool, error) {
	var zero T
	if !e.hasValue {
		return zero, false, nil
	}
	if e.raw != nil {
		var decoded T
		if err := json.Unmarshal(e.raw, &decoded); err != nil {
			return zero, false, fmt.Errorf("decode cached %s: %w", e.key, err)
		}
		e.value = decoded
		e.raw = nil
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, false, nil
	}
	var cp T
	if err := deepcopy.Copy(&cp, v); err != nil {
		return zero, false, fmt.Errorf("copy cached %s: %w", e.key, err)
	}
	return cp, true, nil
}

func copyAny(v any) any {
	if v == nil {
		return nil
	}
	dst := reflect.New(reflect.TypeOf(v))
	if err := deepcopy.Copy(dst.Interface(), v); err != nil {
		return v
	}
	return dst.Elem().Interface()
}

// CancelQueries drops the in-flight fetches of matching entries. The network
// requests are cancelled through their context and any late result is
// discarded.
func (c *QueryCache) CancelQueries(filter domain.QueryFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !filter.Matches(key) {
			continue
		}
		e.gen++
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.fetching = false
	}
}

// InvalidateQueries marks matching entries stale and, while online,
// refetches the ones that are observed. Refetch failures are returned joined;
// the entries keep their previous values.
func (c *QueryCache) InvalidateQueries(ctx context.Context, filter domain.QueryFilter) error {
	c.mu.Lock()
	for key, e := range c.entries {
		if filter.Matches(key) {
			e.stale = true
		}
	}
	c.mu.Unlock()
	c.notify()
	return c.RefetchActive(ctx, filter)
}

// RefetchActive refetches observed entries matched by filter. It does nothing
// while offline.
func (c *QueryCache) RefetchActive(ctx context.Context, filter domain.QueryFilter) error {
	if !c.opts.Online.IsOnline() {
		return nil
	}
	c.mu.Lock()
	var keys []domain.QueryKey
	for key, e := range c.entries {
		if e.observers > 0 && filter.Matches(key) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, key := range keys {
		g.Go(func() error {
			if err := c.Fetch(ctx, key, nil); err != nil && !errors.Is(err, domain.ErrQueryCancelled) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("refetch %s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// RemoveQueries deletes matching entries, cancelling their fetches. Observed
// entries keep their slot, observers and fetcher and only lose their value.
func (c *QueryCache) RemoveQueries(filter domain.QueryFilter) {
	c.mu.Lock()
	c.removed = append(c.removed, filter)
	removed := 0
	for key, e := range c.entries {
		if !filter.Matches(key) {
			continue
		}
		e.gen++
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.fetching = false
		if e.observers > 0 {
			e.value, e.raw, e.hasValue, e.err = nil, nil, false, nil
		} else {
			delete(c.entries, key)
		}
		removed++
	}
	c.mu.Unlock()
	if removed > 0 {
		c.notify()
	}
}

func (c *QueryCache) wasRemoved(key domain.QueryKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.removed {
		if f.Matches(key) {
			return true
		}
	}
	return false
}

// Capture copies every existing entry matched by filter.
func (c *QueryCache) Capture(filter domain.QueryFilter) []EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []EntryState
	for key, e := range c.entries {
		if filter.Matches(key) {
			out = append(out, captureLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// CaptureKey copies one entry. The state records absence when the key is not cached.
func (c *QueryCache) CaptureKey(key domain.QueryKey) EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return EntryState{Key: key}
	}
	return captureLocked(e)
}

func captureLocked(e *queryEntry) EntryState {
	st := EntryState{
		Key:       e.key,
		Exists:    true,
		HasValue:  e.hasValue,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale,
		Err:       e.err,
	}
	if e.raw != nil {
		st.Raw = append(json.RawMessage(nil), e.raw...)
	} else {
		st.Value = copyAny(e.value)
	}
	return st
}

// Restore writes captured states back verbatim. Entries that did not exist
// at capture time lose their value again.
func (c *QueryCache) Restore(states ...EntryState) {
	if len(states) == 0 {
		return
	}
	c.mu.Lock()
	for _, st := range states {
		if !st.Exists {
			if e, ok := c.entries[st.Key]; ok {
				if e.observers == 0 {
					delete(c.entries, st.Key)
				} else {
					e.value, e.raw, e.hasValue, e.err = nil, nil, false, nil
				}
			}
			continue
		}
		e := c.entryLocked(st.Key)
		e.hasValue = st.HasValue
		e.value = copyAny(st.Value)
		e.raw = nil
		if st.Raw != nil {
			e.raw = append(json.RawMessage(nil), st.Raw...)
		}
		e.updatedAt = st.UpdatedAt
		e.stale = st.Stale
		e.err = st.Err
	}
	c.mu.Unlock()
	c.notify()
}

// Inspect describes the entry for key.
func (c *QueryCache) Inspect(key domain.QueryKey) (QueryState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return QueryState{}, false
	}
	return stateLocked(e), true
}

// States describes every entry, ordered by key.
func (c *QueryCache) States() []QueryState {
	c.mu.Lock()
	out := make([]QueryState, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, stateLocked(e))
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func stateLocked(e *queryEntry) QueryState {
	return QueryState{
		Key:       e.key,
		HasValue:  e.hasValue,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale,
		Fetching:  e.fetching,
		Observers: e.observers,
		Err:       e.err,
	}
}

// Dehydrate serialises every entry that holds a value.
func (c *QueryCache) Dehydrate() (domain.CacheSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := domain.CacheSnapshot{Version: domain.SnapshotVersion, SavedAt: c.opts.Now()}
	var errs []error
	for key, e := range c.entries {
		if !e.hasValue {
			continue
		}
		raw := e.raw
		if raw == nil {
			b, err := json.Marshal(e.value)
			if err != nil {
				errs = append(errs, fmt.Errorf("encode %s: %w", key, err))
				continue
			}
			raw = b
		}
		snap.Entries = append(snap.Entries, domain.SnapshotEntry{
			Key:       key,
			Value:     append(json.RawMessage(nil), raw...),
			UpdatedAt: e.updatedAt,
			Stale:     e.stale,
		})
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Key.String() < snap.Entries[j].Key.String()
	})
	return snap, errors.Join(errs...)
}

// Hydrate loads a snapshot. Values are decoded lazily on first typed read.
// Entries that already hold a value are left alone.
func (c *QueryCache) Hydrate(snap domain.CacheSnapshot) int {
	if snap.Version != domain.SnapshotVersion {
		logger.Warn("cache: ignoring snapshot version %d", snap.Version)
		return 0
	}
	c.mu.Lock()
	n := 0
	for _, se := range snap.Entries {
		e := c.entryLocked(se.Key)
		if e.hasValue {
			continue
		}
		e.raw = append(json.RawMessage(nil), se.Value...)
		e.value = nil
		e.hasValue = true
		e.updatedAt = se.UpdatedAt
		e.stale = se.Stale
		n++
	}
	c.mu.Unlock()
	if n > 0 {
		c.notify()
	}
	return n
}
