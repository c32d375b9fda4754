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
var _ driving.ProductCommands = (*ProductMutations)(nil)

type createProductInput struct {
	TempID     int64                 `json:"tempId"`
	Payload    domain.ProductPayload `json:"payload"`
	RelatedIDs []int64               `json:"relatedIds,omitempty"`
}

type updateProductInput struct {
	ID      int64                 `json:"id"`
	Payload domain.ProductPayload `json:"payload"`
}

type deleteProductsInput struct {
	IDs []int64 `json:"ids"`
}

type relationInput struct {
	ProductID int64 `json:"productoId"`
	RelatedID int64 `json:"productoRelacionadoId"`
}

type relatedRollback struct {
	Related EntryState
	Detail  EntryState
}

type noRollback struct{}

// ProductMutations applies product writes optimistically.
type ProductMutations struct {
	env *mutationEnv
	api driven.InventoryAPI

	create     *mutationSpec[createProductInput, domain.Product, productRollback]
	update     *mutationSpec[updateProductInput, domain.Product, productRollback]
	remove     *mutationSpec[deleteProductsInput, struct{}, productRollback]
	bulkDelete *mutationSpec[deleteProductsInput, struct{}, productRollback]
	relate     *mutationSpec[relationInput, struct{}, relatedRollback]
	unrelate   *mutationSpec[relationInput, struct{}, relatedRollback]
	bulkUpload *mutationSpec[[]domain.ProductPayload, struct{}, noRollback]
}

// NewProductMutations creates the product controller and registers its
// resume handlers.
func NewProductMutations(queries *QueryCache, mutations *MutationCache, online OnlineChecker, api driven.InventoryAPI) *ProductMutations {
	m := &ProductMutations{
		env: &mutationEnv{queries: queries, mutations: mutations, online: online},
		api: api,
	}
	m.create = m.createSpec()
	m.update = m.updateSpec()
	m.remove = m.deleteSpec(domain.MutationDeleteProduct)
	m.bulkDelete = m.deleteSpec(domain.MutationBulkDeleteProducts)
	m.relate = m.relateSpec()
	m.unrelate = m.unrelateSpec()
	m.bulkUpload = m.bulkUploadSpec()

	registerMutation(m.env, m.create)
	registerMutation(m.env, m.update)
	registerMutation(m.env, m.remove)
	registerMutation(m.env, m.bulkDelete)
	registerMutation(m.env, m.relate)
	registerMutation(m.env, m.unrelate)
	registerMutation(m.env, m.bulkUpload)
	return m
}

// Create adds a product. The row appears immediately under a temporary id
// and is replaced by the server row once the write succeeds.
func (m *ProductMutations) Create(ctx context.Context, in domain.ProductPayload, relatedIDs ...int64) (domain.MutationResult[domain.Product], error) {
	input := createProductInput{TempID: domain.NewTempID(), Payload: in, RelatedIDs: relatedIDs}
	res, err := runMutation(ctx, m.env, m.create, input)
	if err == nil && res.Queued {
		res.Data, _ = findCachedProduct(m.env.queries, input.TempID)
		if res.Data.ID == 0 {
			res.Data = domain.ProductFromPayload(input.TempID, in, usdRate(m.env.queries))
		}
	}
	return res, err
}

func (m *ProductMutations) createSpec() *mutationSpec[createProductInput, domain.Product, productRollback] {
	c := m.env.queries
	return &mutationSpec[createProductInput, domain.Product, productRollback]{
		key:     domain.MutationCreateProduct,
		subject: func(in createProductInput) int64 { return in.TempID },
		cancel:  productListFilters(),
		prepare: func(in createProductInput) (productRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return productRollback{}, err
			}
			row := domain.ProductFromPayload(in.TempID, in.Payload, usdRate(c))
			row.RelatedIDs = append([]int64{}, in.RelatedIDs...)
			rb := captureProducts(c)

			patchProductPages(c, func(q domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
				if page.Number != 0 || !listingIncludes(q, row) {
					return page, false
				}
				if q.SortBy == "id" && q.Order == domain.SortDesc {
					page.Content = append([]domain.Product{row}, page.Content...)
				} else {
					page.Content = append(page.Content, row)
				}
				page.TotalElements++
				return page, true
			})
			patchAllProducts(c, func(all []domain.Product) ([]domain.Product, bool) {
				return append(all, row), true
			})
			return rb, nil
		},
		send: func(ctx context.Context, in createProductInput) (domain.Product, error) {
			return m.api.CreateProduct(ctx, in.Payload)
		},
		rollback: func(rb productRollback) { rb.restore(c) },
		onSuccess: func(ctx context.Context, in createProductInput, tempID int64, created domain.Product) {
			m.replaceTemporary(tempID, created)
			for _, rel := range in.RelatedIDs {
				err := m.api.RelateProduct(ctx, domain.ProductRelation{ProductID: created.ID, RelatedID: rel})
				if err != nil {
					logger.Warn("products: relate %d to new product %d: %v", rel, created.ID, err)
				}
			}
		},
		invalidate: func(createProductInput) []domain.QueryFilter {
			return productListFilters()
		},
	}
}

// replaceTemporary swaps the placeholder row for the server row.
func (m *ProductMutations) replaceTemporary(tempID int64, created domain.Product) {
	swap := func(p domain.Product) (domain.Product, bool) {
		if p.ID != tempID {
			return p, false
		}
		return created, true
	}
	patchProductPages(m.env.queries, func(_ domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
		var changed bool
		page.Content, changed = mapProducts(page.Content, swap)
		return page, changed
	})
	patchAllProducts(m.env.queries, func(all []domain.Product) ([]domain.Product, bool) {
		return mapProducts(all, swap)
	})
	m.env.queries.RemoveQueries(domain.ByKey(domain.ProductKey(tempID)))
}

// Update replaces a product's editable fields. Updating a product that only
// exists locally rewrites its queued create instead of calling the server.
func (m *ProductMutations) Update(ctx context.Context, id int64, in domain.ProductPayload) (domain.MutationResult[domain.Product], error) {
	res, err := runMutation(ctx, m.env, m.update, updateProductInput{ID: id, Payload: in})
	if err == nil && res.Data.ID == 0 {
		res.Data, _ = findCachedProduct(m.env.queries, id)
	}
	return res, err
}

// UpdateField edits one price-driving field of a cached product.
func (m *ProductMutations) UpdateField(ctx context.Context, id int64, field domain.ProductField, value float64) (domain.MutationResult[domain.Product], error) {
	if !field.IsValid() {
		return domain.MutationResult[domain.Product]{}, fmt.Errorf("%w: field %q is not editable", domain.ErrInvalidInput, field)
	}
	current, ok := findCachedProduct(m.env.queries, id)
	if !ok {
		return domain.MutationResult[domain.Product]{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return m.Update(ctx, id, domain.PayloadFromProduct(current).WithField(field, value))
}

func (m *ProductMutations) updateSpec() *mutationSpec[updateProductInput, domain.Product, productRollback] {
	c := m.env.queries
	return &mutationSpec[updateProductInput, domain.Product, productRollback]{
		key:     domain.MutationUpdateProduct,
		subject: func(in updateProductInput) int64 { return in.ID },
		cancel: append(productListFilters(),
			domain.ByFamily(domain.FamilyProduct)),
		prepare: func(in updateProductInput) (productRollback, error) {
			if err := in.Payload.Validate(); err != nil {
				return productRollback{}, err
			}
			rate := usdRate(c)
			rb := captureProducts(c, in.ID)
			apply := func(p domain.Product) (domain.Product, bool) {
				if p.ID != in.ID {
					return p, false
				}
				return domain.ApplyPayload(p, in.Payload, rate), true
			}
			patchProductPages(c, func(_ domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
				var changed bool
				page.Content, changed = mapProducts(page.Content, apply)
				return page, changed
			})
			patchAllProducts(c, func(all []domain.Product) ([]domain.Product, bool) {
				return mapProducts(all, apply)
			})
			patchProductDetail(c, in.ID, func(p domain.Product) domain.Product {
				return domain.ApplyPayload(p, in.Payload, rate)
			})
			return rb, nil
		},
		local: func(in updateProductInput) (domain.Product, bool) {
			if !domain.IsTempID(in.ID) {
				return domain.Product{}, false
			}
			p, _ := findCachedProduct(c, in.ID)
			var related []int64
			if p.ID != 0 {
				related = p.RelatedIDs
			}
			queued := createProductInput{TempID: in.ID, Payload: in.Payload, RelatedIDs: related}
			if ok, err := m.env.mutations.replacePausedInput(domain.MutationCreateProduct, in.ID, queued); err != nil || !ok {
				logger.Warn("products: no queued create for temporary product %d", in.ID)
			}
			return p, true
		},
		send: func(ctx context.Context, in updateProductInput) (domain.Product, error) {
			return m.api.UpdateProduct(ctx, in.ID, in.Payload)
		},
		rollback: func(rb productRollback) { rb.restore(c) },
		invalidate: func(in updateProductInput) []domain.QueryFilter {
			return append(productListFilters(), domain.ByKey(domain.ProductKey(in.ID)))
		},
	}
}

// Delete removes one product. Deleting a product that only exists locally
// drops its queued create and never calls the server.
func (m *ProductMutations) Delete(ctx context.Context, id int64) (domain.MutationResult[struct{}], error) {
	return runMutation(ctx, m.env, m.remove, deleteProductsInput{IDs: []int64{id}})
}

// BulkDelete removes several products in one request.
func (m *ProductMutations) BulkDelete(ctx context.Context, ids []int64) (domain.MutationResult[struct{}], error) {
	if len(ids) == 0 {
		return domain.MutationResult[struct{}]{}, nil
	}
	return runMutation(ctx, m.env, m.bulkDelete, deleteProductsInput{IDs: ids})
}

func serverIDs(ids []int64) []int64 {
	var out []int64
	for _, id := range ids {
		if !domain.IsTempID(id) {
			out = append(out, id)
		}
	}
	return out
}

func (m *ProductMutations) deleteSpec(key domain.MutationKey) *mutationSpec[deleteProductsInput, struct{}, productRollback] {
	c := m.env.queries
	return &mutationSpec[deleteProductsInput, struct{}, productRollback]{
		key: key,
		subject: func(in deleteProductsInput) int64 {
			if len(in.IDs) == 1 {
				return in.IDs[0]
			}
			return 0
		},
		cancel: append(productListFilters(), domain.ByFamily(domain.FamilyProduct)),
		prepare: func(in deleteProductsInput) (productRollback, error) {
			rb := captureProducts(c, in.IDs...)
			set := make(map[int64]bool, len(in.IDs))
			for _, id := range in.IDs {
				set[id] = true
			}
			patchProductPages(c, func(_ domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
				var removed int
				page.Content, removed = removeProducts(page.Content, set)
				if removed == 0 {
					return page, false
				}
				page.TotalElements -= removed
				if page.TotalElements < 0 {
					page.TotalElements = 0
				}
				return page, true
			})
			patchAllProducts(c, func(all []domain.Product) ([]domain.Product, bool) {
				kept, removed := removeProducts(all, set)
				return kept, removed > 0
			})
			for _, id := range in.IDs {
				c.RemoveQueries(domain.ByKey(domain.ProductKey(id)))
			}
			return rb, nil
		},
		local: func(in deleteProductsInput) (struct{}, bool) {
			for _, id := range in.IDs {
				if domain.IsTempID(id) {
					m.env.mutations.discardPaused(domain.MutationCreateProduct, id)
				}
			}
			return struct{}{}, len(serverIDs(in.IDs)) == 0
		},
		send: func(ctx context.Context, in deleteProductsInput) (struct{}, error) {
			ids := serverIDs(in.IDs)
			if len(ids) == 1 && key == domain.MutationDeleteProduct {
				return struct{}{}, m.api.DeleteProduct(ctx, ids[0])
			}
			return struct{}{}, m.api.DeleteProducts(ctx, ids)
		},
		rollback: func(rb productRollback) { rb.restore(c) },
		invalidate: func(in deleteProductsInput) []domain.QueryFilter {
			out := productListFilters()
			for _, id := range in.IDs {
				out = append(out, domain.ByKey(domain.RelatedProductsKey(id)))
			}
			return out
		},
	}
}

// Relate links relatedID to productID. The related row is built from cached
// product, supplier and category data.
func (m *ProductMutations) Relate(ctx context.Context, productID, relatedID int64) (domain.MutationResult[struct{}], error) {
	return runMutation(ctx, m.env, m.relate, relationInput{ProductID: productID, RelatedID: relatedID})
}

// Unrelate removes the link between two products.
func (m *ProductMutations) Unrelate(ctx context.Context, productID, relatedID int64) (domain.MutationResult[struct{}], error) {
	return runMutation(ctx, m.env, m.unrelate, relationInput{ProductID: productID, RelatedID: relatedID})
}

func (m *ProductMutations) checkRelation(in relationInput) error {
	if in.ProductID == in.RelatedID {
		return fmt.Errorf("%w: a product cannot be related to itself", domain.ErrInvalidInput)
	}
	if domain.IsTempID(in.ProductID) || domain.IsTempID(in.RelatedID) {
		return fmt.Errorf("%w: products must be saved before relating them", domain.ErrInvalidInput)
	}
	return nil
}

func (m *ProductMutations) captureRelation(productID int64) relatedRollback {
	c := m.env.queries
	return relatedRollback{
		Related: c.CaptureKey(domain.RelatedProductsKey(productID)),
		Detail:  c.CaptureKey(domain.ProductKey(productID)),
	}
}

func (m *ProductMutations) relateSpec() *mutationSpec[relationInput, struct{}, relatedRollback] {
	c := m.env.queries
	return &mutationSpec[relationInput, struct{}, relatedRollback]{
		key:     domain.MutationRelateProduct,
		subject: func(in relationInput) int64 { return in.ProductID },
		cancel: []domain.QueryFilter{
			domain.ByFamily(domain.FamilyRelatedProducts),
			domain.ByFamily(domain.FamilyProduct),
		},
		prepare: func(in relationInput) (relatedRollback, error) {
			if err := m.checkRelation(in); err != nil {
				return relatedRollback{}, err
			}
			target, ok := findCachedProduct(c, in.RelatedID)
			if !ok {
				return relatedRollback{}, fmt.Errorf("related product %d: %w", in.RelatedID, domain.ErrNotFound)
			}
			row := domain.RelatedProduct{
				ID:           target.ID,
				Description:  target.Description,
				SupplierName: "N/D",
				PublicPrice:  target.PublicPrice,
				CategoryName: "N/D",
			}
			if suppliers, ok := GetQueryData[[]domain.Supplier](c, domain.SuppliersKey()); ok {
				for _, s := range suppliers {
					if s.ID == target.SupplierID {
						row.SupplierName = s.Name
					}
				}
			}
			if cats, ok := GetQueryData[[]domain.Category](c, domain.CategoriesKey()); ok {
				for _, cat := range cats {
					if cat.ID == target.CategoryID {
						row.CategoryName = cat.Name
					}
				}
			}

			rb := m.captureRelation(in.ProductID)
			key := domain.RelatedProductsKey(in.ProductID)
			existing, _ := GetQueryData[[]domain.RelatedProduct](c, key)
			for _, r := range existing {
				if r.ID == in.RelatedID {
					return rb, nil
				}
			}
			SetQueryData(c, key, append(existing, row))
			patchProductDetail(c, in.ProductID, func(p domain.Product) domain.Product {
				p.RelatedIDs = append(p.RelatedIDs, in.RelatedID)
				return p
			})
			return rb, nil
		},
		send: func(ctx context.Context, in relationInput) (struct{}, error) {
			return struct{}{}, m.api.RelateProduct(ctx, domain.ProductRelation{ProductID: in.ProductID, RelatedID: in.RelatedID})
		},
		rollback: func(rb relatedRollback) { c.Restore(rb.Related, rb.Detail) },
		invalidate: func(in relationInput) []domain.QueryFilter {
			return []domain.QueryFilter{
				domain.ByKey(domain.RelatedProductsKey(in.ProductID)),
				domain.ByKey(domain.ProductKey(in.ProductID)),
			}
		},
	}
}

func (m *ProductMutations) unrelateSpec() *mutationSpec[relationInput, struct{}, relatedRollback] {
	c := m.env.queries
	return &mutationSpec[relationInput, struct{}, relatedRollback]{
		key:     domain.MutationUnrelateProduct,
		subject: func(in relationInput) int64 { return in.ProductID },
		cancel: []domain.QueryFilter{
			domain.ByFamily(domain.FamilyRelatedProducts),
			domain.ByFamily(domain.FamilyProduct),
		},
		prepare: func(in relationInput) (relatedRollback, error) {
			if err := m.checkRelation(in); err != nil {
				return relatedRollback{}, err
			}
			rb := m.captureRelation(in.ProductID)
			UpdateQueryData(c, domain.ByKey(domain.RelatedProductsKey(in.ProductID)), func(_ domain.QueryKey, rows []domain.RelatedProduct) ([]domain.RelatedProduct, bool) {
				kept := rows[:0]
				for _, r := range rows {
					if r.ID != in.RelatedID {
						kept = append(kept, r)
					}
				}
				return kept, len(kept) != len(rows)
			})
			patchProductDetail(c, in.ProductID, func(p domain.Product) domain.Product {
				kept := p.RelatedIDs[:0]
				for _, id := range p.RelatedIDs {
					if id != in.RelatedID {
						kept = append(kept, id)
					}
				}
				p.RelatedIDs = kept
				return p
			})
			return rb, nil
		},
		send: func(ctx context.Context, in relationInput) (struct{}, error) {
			return struct{}{}, m.api.UnrelateProduct(ctx, domain.ProductRelation{ProductID: in.ProductID, RelatedID: in.RelatedID})
		},
		rollback: func(rb relatedRollback) { c.Restore(rb.Related, rb.Detail) },
		invalidate: func(in relationInput) []domain.QueryFilter {
			return []domain.QueryFilter{
				domain.ByKey(domain.RelatedProductsKey(in.ProductID)),
				domain.ByKey(domain.ProductKey(in.ProductID)),
			}
		},
	}
}

// BulkUpload imports many products at once. Rows are not patched into the
// cache; the listings are refreshed once the import settles.
func (m *ProductMutations) BulkUpload(ctx context.Context, in []domain.ProductPayload) (domain.MutationResult[struct{}], error) {
	for i, p := range in {
		if err := p.Validate(); err != nil {
			return domain.MutationResult[struct{}]{}, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if len(in) == 0 {
		return domain.MutationResult[struct{}]{}, nil
	}
	return runMutation(ctx, m.env, m.bulkUpload, in)
}

func (m *ProductMutations) bulkUploadSpec() *mutationSpec[[]domain.ProductPayload, struct{}, noRollback] {
	return &mutationSpec[[]domain.ProductPayload, struct{}, noRollback]{
		key: domain.MutationBulkUploadProducts,
		send: func(ctx context.Context, in []domain.ProductPayload) (struct{}, error) {
			return struct{}{}, m.api.BulkUploadProducts(ctx, in)
		},
		invalidate: func([]domain.ProductPayload) []domain.QueryFilter {
			return productListFilters()
		},
	}
}
