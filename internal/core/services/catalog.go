package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Verify interface compliance.
var _ driving.CatalogService = (*CatalogService)(nil)

// supplierScanPageSize is the page size used when collecting the categories
// of a supplier's products.
const supplierScanPageSize = 100

// CatalogService serves reads through the query cache. It registers a
// resolver for every query family so keys restored from a snapshot can be
// refetched without a prior read.
type CatalogService struct {
	cache *QueryCache
	api   driven.InventoryAPI
}

// NewCatalogService creates the read service and registers its resolvers.
func NewCatalogService(cache *QueryCache, api driven.InventoryAPI) *CatalogService {
	s := &CatalogService{cache: cache, api: api}
	for _, f := range []domain.QueryFamily{
		domain.FamilyProducts,
		domain.FamilyProduct,
		domain.FamilyAllProducts,
		domain.FamilyRelatedProducts,
		domain.FamilySuppliers,
		domain.FamilySupplierDetails,
		domain.FamilySupplier,
		domain.FamilyCategories,
		domain.FamilyCategory,
		domain.FamilyCategoriesBySupplier,
		domain.FamilySales,
		domain.FamilySale,
		domain.FamilyExchangeRates,
		domain.FamilyServerStatus,
	} {
		cache.RegisterResolver(f, s.resolve)
	}
	return s
}

func fetchAs[T any](fn func(context.Context) (T, error)) FetchFunc {
	return func(ctx context.Context) (any, error) { return fn(ctx) }
}

// resolve maps a key to the API call that loads it.
func (s *CatalogService) resolve(key domain.QueryKey) (FetchFunc, bool) {
	id, hasID := key.ID()
	switch key.Family {
	case domain.FamilyProducts:
		q, ok := domain.ProductPageQueryFromKey(key)
		if !ok {
			return nil, false
		}
		return fetchAs(func(ctx context.Context) (domain.Page[domain.Product], error) {
			return s.api.ListProducts(ctx, q)
		}), true
	case domain.FamilyAllProducts:
		return fetchAs(s.api.ListAllProducts), true
	case domain.FamilySuppliers:
		return fetchAs(s.supplierSummaries), true
	case domain.FamilySupplierDetails:
		return fetchAs(s.api.ListSuppliers), true
	case domain.FamilyCategories:
		return fetchAs(s.api.ListCategories), true
	case domain.FamilySales:
		return fetchAs(s.salesOrEmpty), true
	case domain.FamilyExchangeRates:
		return fetchAs(s.api.ExchangeRates), true
	case domain.FamilyServerStatus:
		return fetchAs(s.api.ServerStatus), true
	case domain.FamilySale:
		receipt := key.Params().Get("receipt")
		if receipt == "" {
			return nil, false
		}
		return fetchAs(func(ctx context.Context) (domain.Sale, error) {
			return s.api.GetSale(ctx, receipt)
		}), true
	}
	if !hasID {
		return nil, false
	}
	switch key.Family {
	case domain.FamilyProduct:
		return fetchAs(func(ctx context.Context) (domain.Product, error) {
			return s.api.GetProduct(ctx, id)
		}), true
	case domain.FamilyRelatedProducts:
		return fetchAs(func(ctx context.Context) ([]domain.RelatedProduct, error) {
			return s.api.RelatedProducts(ctx, id)
		}), true
	case domain.FamilySupplier:
		return fetchAs(func(ctx context.Context) (domain.SupplierDetail, error) {
			return s.api.GetSupplier(ctx, id)
		}), true
	case domain.FamilyCategory:
		return fetchAs(func(ctx context.Context) (domain.Category, error) {
			return s.api.GetCategory(ctx, id)
		}), true
	case domain.FamilyCategoriesBySupplier:
		return fetchAs(func(ctx context.Context) ([]domain.Category, error) {
			return s.categoriesBySupplier(ctx, id)
		}), true
	}
	return nil, false
}

func (s *CatalogService) supplierSummaries(ctx context.Context) ([]domain.Supplier, error) {
	details, err := s.api.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Supplier, len(details))
	for i, d := range details {
		out[i] = d.Summary()
	}
	return out, nil
}

// salesOrEmpty degrades a failed sales listing to an empty history.
func (s *CatalogService) salesOrEmpty(ctx context.Context) ([]domain.Sale, error) {
	sales, err := s.api.ListSales(ctx)
	if err != nil {
		logger.Warn("catalog: listing sales: %v", err)
		return []domain.Sale{}, nil
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	return sales, nil
}

// categoriesBySupplier pages through the supplier's products and keeps the
// categories they use.
func (s *CatalogService) categoriesBySupplier(ctx context.Context, supplierID int64) ([]domain.Category, error) {
	used := make(map[int64]bool)
	for page := 0; ; page++ {
		res, err := s.api.ListProducts(ctx, domain.ProductPageQuery{
			Page:       page,
			Size:       supplierScanPageSize,
			SupplierID: supplierID,
		})
		if err != nil {
			return nil, fmt.Errorf("scan supplier %d products: %w", supplierID, err)
		}
		for _, p := range res.Content {
			if p.CategoryID != 0 {
				used[p.CategoryID] = true
			}
		}
		if len(res.Content) < supplierScanPageSize || (res.TotalPages > 0 && page+1 >= res.TotalPages) {
			break
		}
	}
	all, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(used))
	for _, c := range all {
		if used[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Products returns one page of the product listing.
func (s *CatalogService) Products(ctx context.Context, q domain.ProductPageQuery) (domain.Cached[domain.Page[domain.Product]], error) {
	return Query[domain.Page[domain.Product]](ctx, s.cache, domain.ProductsPageKey(q), nil)
}

// AllProducts returns every product.
func (s *CatalogService) AllProducts(ctx context.Context) (domain.Cached[[]domain.Product], error) {
	return Query[[]domain.Product](ctx, s.cache, domain.AllProductsKey(), nil)
}

// Product returns one product.
func (s *CatalogService) Product(ctx context.Context, id int64) (domain.Cached[domain.Product], error) {
	return Query[domain.Product](ctx, s.cache, domain.ProductKey(id), nil)
}

// RelatedProducts returns the products related to id.
func (s *CatalogService) RelatedProducts(ctx context.Context, id int64) (domain.Cached[[]domain.RelatedProduct], error) {
	return Query[[]domain.RelatedProduct](ctx, s.cache, domain.RelatedProductsKey(id), nil)
}

// Suppliers returns the supplier summaries.
func (s *CatalogService) Suppliers(ctx context.Context) (domain.Cached[[]domain.Supplier], error) {
	return Query[[]domain.Supplier](ctx, s.cache, domain.SuppliersKey(), nil)
}

// SupplierDetails returns the full supplier records.
func (s *CatalogService) SupplierDetails(ctx context.Context) (domain.Cached[[]domain.SupplierDetail], error) {
	return Query[[]domain.SupplierDetail](ctx, s.cache, domain.SupplierDetailsKey(), nil)
}

// Supplier returns one supplier.
func (s *CatalogService) Supplier(ctx context.Context, id int64) (domain.Cached[domain.SupplierDetail], error) {
	return Query[domain.SupplierDetail](ctx, s.cache, domain.SupplierKey(id), nil)
}

// Categories returns every category.
func (s *CatalogService) Categories(ctx context.Context) (domain.Cached[[]domain.Category], error) {
	return Query[[]domain.Category](ctx, s.cache, domain.CategoriesKey(), nil)
}

// Category returns one category.
func (s *CatalogService) Category(ctx context.Context, id int64) (domain.Cached[domain.Category], error) {
	return Query[domain.Category](ctx, s.cache, domain.CategoryKey(id), nil)
}

// CategoriesBySupplier returns the categories a supplier's products use.
func (s *CatalogService) CategoriesBySupplier(ctx context.Context, supplierID int64) (domain.Cached[[]domain.Category], error) {
	return Query[[]domain.Category](ctx, s.cache, domain.CategoriesBySupplierKey(supplierID), nil)
}

// Sales returns the sales history.
func (s *CatalogService) Sales(ctx context.Context) (domain.Cached[[]domain.Sale], error) {
	return Query[[]domain.Sale](ctx, s.cache, domain.SalesKey(), nil)
}

// Sale returns a sale by receipt number.
func (s *CatalogService) Sale(ctx context.Context, receipt string) (domain.Cached[domain.Sale], error) {
	return Query[domain.Sale](ctx, s.cache, domain.SaleKey(receipt), nil)
}

// ExchangeRates returns the USD quotes.
func (s *CatalogService) ExchangeRates(ctx context.Context) (domain.Cached[[]domain.ExchangeRate], error) {
	return Query[[]domain.ExchangeRate](ctx, s.cache, domain.ExchangeRatesKey(), nil)
}
