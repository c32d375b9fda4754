package driving

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// ProductCommands applies product writes.
type ProductCommands interface {
	// Create adds a product and relates it to relatedIDs once saved.
	Create(ctx context.Context, in domain.ProductPayload, relatedIDs ...int64) (domain.MutationResult[domain.Product], error)

	// Update replaces the editable fields of a product.
	Update(ctx context.Context, id int64, in domain.ProductPayload) (domain.MutationResult[domain.Product], error)

	// UpdateField changes one pricing field of a cached product.
	UpdateField(ctx context.Context, id int64, field domain.ProductField, value float64) (domain.MutationResult[domain.Product], error)

	// Delete removes one product.
	Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error)

	// BulkDelete removes several products in one request.
	BulkDelete(ctx context.Context, ids []int64) (domain.MutationResult[struct{}], error)

	// Relate links two products.
	Relate(ctx context.Context, productID, relatedID int64) (domain.MutationResult[struct{}], error)

	// Unrelate removes a link between two products.
	Unrelate(ctx context.Context, productID, relatedID int64) (domain.MutationResult[struct{}], error)

	// BulkUpload creates many products from an import.
	BulkUpload(ctx context.Context, in []domain.ProductPayload) (domain.MutationResult[struct{}], error)
}

// SupplierCommands applies supplier writes.
type SupplierCommands interface {
	Create(ctx context.Context, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error)
	Update(ctx context.Context, id int64, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error)
	Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error)
}

// CategoryCommands applies category writes.
type CategoryCommands interface {
	Create(ctx context.Context, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error)
	BulkCreate(ctx context.Context, in []domain.CategoryPayload) (domain.MutationResult[[]domain.Category], error)
	Update(ctx context.Context, id int64, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error)
	Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error)
}

// SaleCommands registers sales.
type SaleCommands interface {
	// Register submits a draft. Submitting the same draft id twice fails
	// with domain.ErrDuplicateMutation.
	Register(ctx context.Context, draft domain.SaleDraft) (domain.MutationResult[domain.Sale], error)
}

// ExchangeRateCommands triggers server-side rate refreshes.
type ExchangeRateCommands interface {
	ForceUpdate(ctx context.Context) (domain.MutationResult[string], error)
}

// MutationQueue exposes the writes that have not settled.
type MutationQueue interface {
	// Records lists outstanding and failed writes in invocation order.
	Records() []domain.MutationRecord

	// Flush sends every paused write. It fails with domain.ErrOffline while offline.
	Flush(ctx context.Context) error

	// Ack dismisses one failed write.
	Ack(id string) error

	// AckAll dismisses every failed write and returns how many were dismissed.
	AckAll() int
}
