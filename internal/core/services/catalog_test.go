package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func newCatalogFixture(t *testing.T) (*mockInventory, *switchable, *QueryCache, *CatalogService) {
	t.Helper()
	api := newMockInventory()
	online := &switchable{online: true}
	cache := NewQueryCache(QueryCacheOptions{Online: online})
	return api, online, cache, NewCatalogService(cache, api)
}

func supplierProduct(id, supplier, category int64) domain.Product {
	p := testProduct(id, 1)
	p.SupplierID = supplier
	p.CategoryID = category
	return p
}

func TestCatalog_CategoriesBySupplier(t *testing.T) {
	api, _, _, catalog := newCatalogFixture(t)
	api.products = []domain.Product{
		supplierProduct(1, 7, 1),
		supplierProduct(2, 7, 2),
		supplierProduct(3, 7, 2),
		supplierProduct(4, 8, 3),
		supplierProduct(5, 7, 0),
	}
	api.categories = []domain.Category{{ID: 1, Name: "Tools"}, {ID: 2, Name: "Paint"}, {ID: 3, Name: "Glue"}}

	got, err := catalog.CategoriesBySupplier(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Tools"}, {ID: 2, Name: "Paint"}}, got.Data)
	assert.Equal(t, 1, api.callCount("ListProducts"))
}

func TestCatalog_CategoriesBySupplierPagesThroughProducts(t *testing.T) {
	api, _, _, catalog := newCatalogFixture(t)
	for i := int64(1); i <= 150; i++ {
		api.products = append(api.products, supplierProduct(i, 7, 1+i/100))
	}
	api.categories = []domain.Category{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}

	got, err := catalog.CategoriesBySupplier(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got.Data, 2)
	assert.Equal(t, 2, api.callCount("ListProducts"))
}

func TestCatalog_SalesDegradeToEmpty(t *testing.T) {
	api, _, _, catalog := newCatalogFixture(t)
	api.setErr("ListSales", serverError())

	got, err := catalog.Sales(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.Data)
	assert.Empty(t, got.Data)
}

func TestCatalog_SuppliersAreSummaries(t *testing.T) {
	api, _, _, catalog := newCatalogFixture(t)
	api.suppliers = []domain.SupplierDetail{{ID: 3, Name: "Acme", SalesContact1: "Ana", TaxID: "30-1"}}

	got, err := catalog.Suppliers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Supplier{{ID: 3, Name: "Acme", Contact: "Ana"}}, got.Data)
}

func TestCatalog_OfflineServesCacheWithoutCalls(t *testing.T) {
	api, online, _, catalog := newCatalogFixture(t)
	api.products = []domain.Product{testProduct(1, 2)}

	_, err := catalog.Product(context.Background(), 1)
	require.NoError(t, err)
	online.set(false)

	got, err := catalog.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Data.ID)
	assert.Equal(t, 1, api.callCount("GetProduct"))

	_, err = catalog.Product(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNoCachedData)
}

func TestCatalog_ResolverRefetchesRestoredKeys(t *testing.T) {
	api, _, cache, _ := newCatalogFixture(t)
	api.rates = []domain.ExchangeRate{{ID: 1, Name: "oficial", Price: 1000}}
	key := domain.ExchangeRatesKey()
	stop := cache.Observe(key, nil)
	defer stop()

	require.NoError(t, cache.InvalidateQueries(context.Background(), domain.ByKey(key)))
	rates, ok := GetQueryData[[]domain.ExchangeRate](cache, key)
	require.True(t, ok)
	assert.Equal(t, 1000.0, rates[0].Price)
}

func TestCatalog_ProductPageKeysAreNormalised(t *testing.T) {
	api, _, _, catalog := newCatalogFixture(t)
	api.products = []domain.Product{testProduct(1, 2)}

	_, err := catalog.Products(context.Background(), domain.ProductPageQuery{})
	require.NoError(t, err)
	_, err = catalog.Products(context.Background(), domain.ProductPageQuery{Size: domain.DefaultPageSize, SortBy: "id", Order: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 2, api.callCount("ListProducts"), "zero stale time refetches the same key")
}
