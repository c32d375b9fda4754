package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Verify interface compliance.
var _ driving.SaleCommands = (*SaleMutations)(nil)

// saleInput carries the draft id explicitly since SaleDraft does not encode it.
type saleInput struct {
	DraftID string           `json:"draftId"`
	Draft   domain.SaleDraft `json:"draft"`
}

// SaleMutations registers sales and decrements stock optimistically.
type SaleMutations struct {
	env *mutationEnv
	api driven.InventoryAPI

	register *mutationSpec[saleInput, domain.Sale, productRollback]
}

// NewSaleMutations creates the sale controller and registers its resume handler.
func NewSaleMutations(queries *QueryCache, mutations *MutationCache, online OnlineChecker, api driven.InventoryAPI) *SaleMutations {
	m := &SaleMutations{
		env: &mutationEnv{queries: queries, mutations: mutations, online: online},
		api: api,
	}
	m.register = m.registerSpec()
	registerMutation(m.env, m.register)
	return m
}

// Register submits a sale. The draft id makes resubmission of the same draft
// a duplicate; an empty draft id gets a fresh one.
func (m *SaleMutations) Register(ctx context.Context, draft domain.SaleDraft) (domain.MutationResult[domain.Sale], error) {
	if draft.DraftID == "" {
		draft.DraftID = uuid.NewString()
	}
	return runMutation(ctx, m.env, m.register, saleInput{DraftID: draft.DraftID, Draft: draft})
}

func decrementStock(qty map[int64]int) func(domain.Product) (domain.Product, bool) {
	return func(p domain.Product) (domain.Product, bool) {
		n, ok := qty[p.ID]
		if !ok {
			return p, false
		}
		p.Quantity -= n
		return p, true
	}
}

func (m *SaleMutations) registerSpec() *mutationSpec[saleInput, domain.Sale, productRollback] {
	c := m.env.queries
	return &mutationSpec[saleInput, domain.Sale, productRollback]{
		key:            domain.MutationRegisterSale,
		idempotencyKey: func(in saleInput) string { return in.DraftID },
		cancel: []domain.QueryFilter{
			domain.ByFamily(domain.FamilyProducts),
			domain.ByFamily(domain.FamilyAllProducts),
			domain.ByFamily(domain.FamilyProduct),
		},
		prepare: func(in saleInput) (productRollback, error) {
			if err := in.Draft.Validate(); err != nil {
				return productRollback{}, err
			}
			qty := in.Draft.Quantities()
			ids := make([]int64, 0, len(qty))
			for id := range qty {
				ids = append(ids, id)
			}
			rb := captureProducts(c, ids...)
			dec := decrementStock(qty)
			patchProductPages(c, func(_ domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
				var changed bool
				page.Content, changed = mapProducts(page.Content, dec)
				return page, changed
			})
			patchAllProducts(c, func(all []domain.Product) ([]domain.Product, bool) {
				return mapProducts(all, dec)
			})
			for _, id := range ids {
				patchProductDetail(c, id, func(p domain.Product) domain.Product {
					p, _ = dec(p)
					return p
				})
			}
			return rb, nil
		},
		send: func(ctx context.Context, in saleInput) (domain.Sale, error) {
			draft := in.Draft
			draft.DraftID = in.DraftID
			return m.api.RegisterSale(ctx, draft)
		},
		rollback: func(rb productRollback) { rb.restore(c) },
		onSuccess: func(_ context.Context, _ saleInput, _ int64, sale domain.Sale) {
			if sale.ReceiptNumber != "" {
				SetQueryData(c, domain.SaleKey(sale.ReceiptNumber), sale)
			}
		},
		invalidate: func(saleInput) []domain.QueryFilter {
			return []domain.QueryFilter{
				domain.ByFamily(domain.FamilyProducts),
				domain.ByFamily(domain.FamilyAllProducts),
				domain.ByFamily(domain.FamilyProduct),
				domain.ByFamily(domain.FamilySales),
			}
		},
	}
}
