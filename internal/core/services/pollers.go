package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// WatermarkFunc reads the last-modified marker of a collection.
type WatermarkFunc func(ctx context.Context) (int64, error)

// WatermarkPoller invalidates a collection when the server reports a newer
// last-modified marker than the one last seen. The first successful read
// only records a baseline.
type WatermarkPoller struct {
	collection domain.Collection
	fetch      WatermarkFunc
	invalidate func(ctx context.Context) error

	mu       sync.Mutex
	baseline bool
	last     int64
	err      error
	onChange func()
}

// NewWatermarkPoller creates a poller.
func NewWatermarkPoller(c domain.Collection, fetch WatermarkFunc, invalidate func(ctx context.Context) error) *WatermarkPoller {
	return &WatermarkPoller{collection: c, fetch: fetch, invalidate: invalidate}
}

// Collection returns the watched collection.
func (p *WatermarkPoller) Collection() domain.Collection { return p.collection }

// Watermark returns the last recorded marker and whether a baseline exists.
func (p *WatermarkPoller) Watermark() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.baseline
}

// Err returns the last poll failure, cleared by the next successful poll.
func (p *WatermarkPoller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// OnChange registers fn to be called when the error flag flips.
func (p *WatermarkPoller) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *WatermarkPoller) setErr(err error) {
	p.mu.Lock()
	flipped := (p.err == nil) != (err == nil)
	p.err = err
	fn := p.onChange
	p.mu.Unlock()
	if flipped && fn != nil {
		fn()
	}
}

// Tick polls once. It reports whether the collection was invalidated. A
// failed read leaves the marker untouched and sets the error flag.
func (p *WatermarkPoller) Tick(ctx context.Context) (bool, error) {
	mark, err := p.fetch(ctx)
	if err != nil {
		p.setErr(err)
		return false, fmt.Errorf("poll %s: %w", p.collection, err)
	}
	p.setErr(nil)

	p.mu.Lock()
	if !p.baseline {
		p.baseline = true
		p.last = mark
		p.mu.Unlock()
		logger.Debug("poller: %s baseline %d", p.collection, mark)
		return false, nil
	}
	if mark <= p.last {
		p.mu.Unlock()
		return false, nil
	}
	p.last = mark
	p.mu.Unlock()

	logger.Info("poller: %s changed at %d, invalidating", p.collection, mark)
	if p.invalidate != nil {
		if err := p.invalidate(ctx); err != nil {
			// Refetch failures keep the previous values and are not a poll error.
			logger.Warn("poller: refetch %s: %v", p.collection, err)
		}
	}
	return true, nil
}

// CollectionFilters lists the query families invalidated when a collection
// changes, dependent families included.
func CollectionFilters(c domain.Collection) []domain.QueryFilter {
	switch c {
	case domain.CollectionProducts:
		return []domain.QueryFilter{
			domain.ByFamily(domain.FamilyProducts),
			domain.ByFamily(domain.FamilyAllProducts),
			domain.ByFamily(domain.FamilyProduct),
			domain.ByFamily(domain.FamilyRelatedProducts),
		}
	case domain.CollectionSuppliers:
		return []domain.QueryFilter{
			domain.ByFamily(domain.FamilySuppliers),
			domain.ByFamily(domain.FamilySupplierDetails),
			domain.ByFamily(domain.FamilySupplier),
		}
	case domain.CollectionCategories:
		return []domain.QueryFilter{
			domain.ByFamily(domain.FamilyCategories),
			domain.ByFamily(domain.FamilyCategory),
			domain.ByFamily(domain.FamilyCategoriesBySupplier),
			domain.ProductPagesFilteredByCategory(),
		}
	}
	return nil
}

// invalidator returns a function invalidating every filter of c.
func invalidator(cache *QueryCache, c domain.Collection) func(ctx context.Context) error {
	filters := CollectionFilters(c)
	return func(ctx context.Context) error {
		var errs []error
		for _, f := range filters {
			if err := cache.InvalidateQueries(ctx, f); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// NewCollectionPollers creates the products, suppliers and categories pollers.
func NewCollectionPollers(cache *QueryCache, api driven.InventoryAPI) []*WatermarkPoller {
	return []*WatermarkPoller{
		NewWatermarkPoller(domain.CollectionProducts, api.ProductsLastModified, invalidator(cache, domain.CollectionProducts)),
		NewWatermarkPoller(domain.CollectionSuppliers, api.SuppliersLastModified, invalidator(cache, domain.CollectionSuppliers)),
		NewWatermarkPoller(domain.CollectionCategories, api.CategoriesLastModified, invalidator(cache, domain.CollectionCategories)),
	}
}

// AnyPollerError reports whether any poller's last read failed.
func AnyPollerError(pollers []*WatermarkPoller) bool {
	for _, p := range pollers {
		if p.Err() != nil {
			return true
		}
	}
	return false
}
