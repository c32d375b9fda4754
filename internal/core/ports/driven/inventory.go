package driven

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// InventoryAPI is the typed surface of the remote inventory API.
// Implementations return *domain.RemoteError for failed requests.
type InventoryAPI interface {
	ListProducts(ctx context.Context, q domain.ProductPageQuery) (domain.Page[domain.Product], error)
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductPayload) (domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in domain.ProductPayload) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	DeleteProducts(ctx context.Context, ids []int64) error
	BulkUploadProducts(ctx context.Context, in []domain.ProductPayload) error
	RelatedProducts(ctx context.Context, id int64) ([]domain.RelatedProduct, error)
	RelateProduct(ctx context.Context, rel domain.ProductRelation) error
	UnrelateProduct(ctx context.Context, rel domain.ProductRelation) error
	ProductsLastModified(ctx context.Context) (int64, error)

	ListSuppliers(ctx context.Context) ([]domain.SupplierDetail, error)
	GetSupplier(ctx context.Context, id int64) (domain.SupplierDetail, error)
	CreateSupplier(ctx context.Context, in domain.SupplierDetail) (domain.SupplierDetail, error)
	UpdateSupplier(ctx context.Context, id int64, in domain.SupplierDetail) (domain.SupplierDetail, error)
	DeleteSupplier(ctx context.Context, id int64) error
	SuppliersLastModified(ctx context.Context) (int64, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, in domain.CategoryPayload) (domain.Category, error)
	CreateCategories(ctx context.Context, in []domain.CategoryPayload) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in domain.CategoryPayload) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoriesLastModified(ctx context.Context) (int64, error)

	RegisterSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, receipt string) (domain.Sale, error)

	ExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error)
	ForceExchangeRateUpdate(ctx context.Context) (string, error)

	ServerStatus(ctx context.Context) (domain.ServerSyncStatus, error)
}
