package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// ClientDeps are the driven adapters a Client is built from.
type ClientDeps struct {
	API      driven.InventoryAPI
	Store    driven.KeyValueStore
	Probe    driven.NetworkProbe
	Settings domain.ClientSettings
	// Offline pins the client offline regardless of probes.
	Offline bool
}

// Client wires the cache engine, the controllers and the background workers.
type Client struct {
	Connectivity *ConnectivityMonitor
	Queries      *QueryCache
	Mutations    *MutationCache

	Catalog    *CatalogService
	Products   *ProductMutations
	Suppliers  *SupplierMutations
	Categories *CategoryMutations
	Sales      *SaleMutations
	Rates      *ExchangeRateMutations
	Queue      *MutationQueueService
	Sync       *SyncStatusService

	Pollers   []*WatermarkPoller
	Scheduler *Scheduler

	persister *SnapshotPersister
	queue     *MutationStore
	throttle  time.Duration
	unsub     []func()
}

// NewClient builds a client. Nothing touches the network or the store until
// Open.
func NewClient(deps ClientDeps) *Client {
	s := deps.Settings
	conn := NewConnectivityMonitor(deps.Probe, !deps.Offline)
	if deps.Offline {
		conn.ForceOffline(true)
	}
	queries := NewQueryCache(QueryCacheOptions{
		StaleTime: s.StaleTime,
		GCTime:    s.GCTime,
		Retries:   s.QueryRetries,
		Online:    conn,
	})
	mutations := NewMutationCache()

	c := &Client{
		Connectivity: conn,
		Queries:      queries,
		Mutations:    mutations,
		Catalog:      NewCatalogService(queries, deps.API),
		Products:     NewProductMutations(queries, mutations, conn, deps.API),
		Suppliers:    NewSupplierMutations(queries, mutations, conn, deps.API),
		Categories:   NewCategoryMutations(queries, mutations, conn, deps.API),
		Sales:        NewSaleMutations(queries, mutations, conn, deps.API),
		Rates:        NewExchangeRateMutations(queries, mutations, conn, deps.API),
		Queue:        NewMutationQueueService(mutations, conn),
		Pollers:      NewCollectionPollers(queries, deps.API),
		Scheduler:    NewScheduler(conn),
		persister:    NewSnapshotPersister(deps.Store, conn),
		queue:        NewMutationStore(deps.Store, s.PersistMutations),
		throttle:     s.PersistThrottle,
	}
	c.Sync = NewSyncStatusService(queries, mutations, conn, c.Pollers, deps.API)

	c.Scheduler.AddPollers(s.PollInterval, c.Pollers...)
	c.Scheduler.Add(domain.ScheduledTask{
		ID:             domain.TaskIDServerStatus,
		Interval:       s.StatusInterval,
		RequiresOnline: true,
	}, func(ctx context.Context) error {
		_, err := c.Sync.Refresh(ctx)
		return err
	})
	if deps.Probe != nil && !deps.Offline {
		c.Scheduler.Add(domain.ScheduledTask{
			ID:       domain.TaskIDProbe,
			Interval: s.ProbeInterval,
		}, func(ctx context.Context) error {
			conn.Check(ctx)
			return nil
		})
	}

	conn.OnReconnect(c.reconnect)
	return c
}

// reconnect marks every entry stale, refetches the observed ones and sends
// the writes queued while offline.
func (c *Client) reconnect(ctx context.Context) {
	if err := c.Queries.InvalidateQueries(ctx, domain.AllQueries()); err != nil {
		logger.Warn("client: refetch after reconnect: %v", err)
	}
	if err := c.Mutations.ResumePaused(ctx); err != nil {
		logger.Warn("client: resume queued writes: %v", err)
	}
}

// Open probes connectivity, restores durable state and, when online, sends
// writes left queued by a previous run.
func (c *Client) Open(ctx context.Context) error {
	c.Connectivity.Check(ctx)

	if snap := c.persister.Restore(ctx); snap != nil {
		n := c.Queries.Hydrate(*snap)
		logger.Debug("client: restored %d cache entries from snapshot", n)
	}
	n, err := c.queue.Restore(ctx, c.Mutations)
	if err != nil {
		logger.Warn("client: %v", err)
	} else if n > 0 {
		logger.Info("client: restored %d queued writes", n)
	}

	c.unsub = append(c.unsub, c.Mutations.Subscribe(func() {
		if err := c.queue.Save(context.Background(), c.Mutations); err != nil {
			logger.Warn("client: save mutation queue: %v", err)
		}
	}))
	c.persister.Start(c.Queries, c.throttle)

	if c.Connectivity.IsOnline() && c.Mutations.PendingCount() > 0 {
		if err := c.Mutations.ResumePaused(ctx); err != nil {
			logger.Warn("client: resume queued writes: %v", err)
		}
	}
	return nil
}

// Close stops background work and writes the cache and queue one last time.
func (c *Client) Close(ctx context.Context) error {
	_ = c.Scheduler.Stop()
	for _, fn := range c.unsub {
		fn()
	}
	c.unsub = nil
	return errors.Join(
		c.persister.Flush(ctx, c.Queries),
		c.queue.Save(ctx, c.Mutations),
	)
}
