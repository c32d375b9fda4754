package driving

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// CatalogService serves cached reads. Every method returns the cached value
// when the server cannot be reached and data is at hand; Cached.Err then
// carries the refresh failure.
type CatalogService interface {
	// Products returns one page of the product listing.
	Products(ctx context.Context, q domain.ProductPageQuery) (domain.Cached[domain.Page[domain.Product]], error)

	// AllProducts returns every product, unpaginated.
	AllProducts(ctx context.Context) (domain.Cached[[]domain.Product], error)

	// Product returns one product.
	Product(ctx context.Context, id int64) (domain.Cached[domain.Product], error)

	// RelatedProducts returns the products related to id.
	RelatedProducts(ctx context.Context, id int64) (domain.Cached[[]domain.RelatedProduct], error)

	// Suppliers returns the supplier summaries.
	Suppliers(ctx context.Context) (domain.Cached[[]domain.Supplier], error)

	// SupplierDetails returns the full supplier records.
	SupplierDetails(ctx context.Context) (domain.Cached[[]domain.SupplierDetail], error)

	// Supplier returns one supplier record.
	Supplier(ctx context.Context, id int64) (domain.Cached[domain.SupplierDetail], error)

	// Categories returns every category.
	Categories(ctx context.Context) (domain.Cached[[]domain.Category], error)

	// Category returns one category.
	Category(ctx context.Context, id int64) (domain.Cached[domain.Category], error)

	// CategoriesBySupplier returns the categories used by a supplier's products.
	CategoriesBySupplier(ctx context.Context, supplierID int64) (domain.Cached[[]domain.Category], error)

	// Sales returns the sales history.
	Sales(ctx context.Context) (domain.Cached[[]domain.Sale], error)

	// Sale returns a sale by receipt number.
	Sale(ctx context.Context, receipt string) (domain.Cached[domain.Sale], error)

	// ExchangeRates returns the USD quotes.
	ExchangeRates(ctx context.Context) (domain.Cached[[]domain.ExchangeRate], error)
}
