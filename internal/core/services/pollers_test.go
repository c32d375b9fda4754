package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func productsPoller(t *testing.T, api *mockInventory, cache *QueryCache) *WatermarkPoller {
	t.Helper()
	for _, p := range NewCollectionPollers(cache, api) {
		if p.Collection() == domain.CollectionProducts {
			return p
		}
	}
	t.Fatal("no products poller")
	return nil
}

func TestWatermarkPoller_InvalidatesOnlyOnIncrease(t *testing.T) {
	api := newMockInventory()
	api.watermarks[domain.CollectionProducts] = []int64{5, 5, 7}
	cache := NewQueryCache(QueryCacheOptions{})
	SetQueryData(cache, domain.AllProductsKey(), []domain.Product{testProduct(1, 1)})
	p := productsPoller(t, api, cache)

	for i, want := range []bool{false, false, true} {
		changed, err := p.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, changed, "tick %d", i+1)
	}
	mark, ok := p.Watermark()
	assert.True(t, ok)
	assert.Equal(t, int64(7), mark)

	st, _ := cache.Inspect(domain.AllProductsKey())
	assert.True(t, st.Stale)
}

func TestWatermarkPoller_BaselineNeverInvalidates(t *testing.T) {
	api := newMockInventory()
	api.watermarks[domain.CollectionProducts] = []int64{99}
	cache := NewQueryCache(QueryCacheOptions{})
	SetQueryData(cache, domain.AllProductsKey(), []domain.Product{})
	p := productsPoller(t, api, cache)

	changed, err := p.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	st, _ := cache.Inspect(domain.AllProductsKey())
	assert.False(t, st.Stale)
}

func TestWatermarkPoller_DecreaseIsIgnored(t *testing.T) {
	api := newMockInventory()
	api.watermarks[domain.CollectionProducts] = []int64{10, 3, 11}
	p := productsPoller(t, api, NewQueryCache(QueryCacheOptions{}))

	var got []bool
	for range 3 {
		changed, err := p.Tick(context.Background())
		require.NoError(t, err)
		got = append(got, changed)
	}
	assert.Equal(t, []bool{false, false, true}, got)
}

func TestWatermarkPoller_ErrorFlagFlips(t *testing.T) {
	api := newMockInventory()
	api.watermarks[domain.CollectionProducts] = []int64{5, 6}
	p := productsPoller(t, api, NewQueryCache(QueryCacheOptions{}))
	flips := 0
	p.OnChange(func() { flips++ })

	_, err := p.Tick(context.Background())
	require.NoError(t, err)

	api.setErr("ProductsLastModified", serverError())
	_, err = p.Tick(context.Background())
	require.Error(t, err)
	_, err = p.Tick(context.Background())
	require.Error(t, err)
	assert.Error(t, p.Err())
	assert.Equal(t, 1, flips)
	mark, _ := p.Watermark()
	assert.Equal(t, int64(5), mark, "failed reads keep the marker")

	api.setErr("ProductsLastModified", nil)
	changed, err := p.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, p.Err())
	assert.Equal(t, 2, flips)
}

func TestCollectionFilters_CategoriesReachFilteredProductPages(t *testing.T) {
	filtered := domain.ProductsPageKey(domain.ProductPageQuery{CategoryID: 4})
	plain := domain.ProductsPageKey(domain.ProductPageQuery{})

	var hitFiltered, hitPlain bool
	for _, f := range CollectionFilters(domain.CollectionCategories) {
		hitFiltered = hitFiltered || f.Matches(filtered)
		hitPlain = hitPlain || f.Matches(plain)
	}
	assert.True(t, hitFiltered)
	assert.False(t, hitPlain)
	assert.Nil(t, CollectionFilters(domain.Collection("unknown")))
}

func TestAnyPollerError(t *testing.T) {
	api := newMockInventory()
	pollers := NewCollectionPollers(NewQueryCache(QueryCacheOptions{}), api)
	assert.False(t, AnyPollerError(pollers))

	api.setErr("SuppliersLastModified", serverError())
	for _, p := range pollers {
		_, _ = p.Tick(context.Background())
	}
	assert.True(t, AnyPollerError(pollers))
}
