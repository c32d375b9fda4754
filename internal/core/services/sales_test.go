package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func newSaleFixture(t *testing.T, seed ...domain.Product) (*productFixture, *SaleMutations) {
	t.Helper()
	f := newProductFixture(t, seed...)
	return f, NewSaleMutations(f.queries, f.mutations, f.online, f.api)
}

func stockOf(t *testing.T, f *productFixture, id int64) (page, all, detail int) {
	t.Helper()
	for _, p := range f.page(t).Content {
		if p.ID == id {
			page = p.Quantity
		}
	}
	list, _ := GetQueryData[[]domain.Product](f.queries, domain.AllProductsKey())
	for _, p := range list {
		if p.ID == id {
			all = p.Quantity
		}
	}
	d, _ := GetQueryData[domain.Product](f.queries, domain.ProductKey(id))
	return page, all, d.Quantity
}

func TestSaleRegister_DecrementsThenRevertsOnFailure(t *testing.T) {
	f, sales := newSaleFixture(t, testProduct(1, 10))
	release := make(chan struct{})
	f.api.block["RegisterSale"] = release
	f.api.setErr("RegisterSale", serverError())

	done := make(chan error, 1)
	go func() {
		_, err := sales.Register(context.Background(), domain.SaleDraft{
			Items: []domain.SaleLine{{ProductID: 1, Quantity: 3}},
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return f.api.callCount("RegisterSale") == 1 }, time.Second, 5*time.Millisecond)
	page, all, detail := stockOf(t, f, 1)
	assert.Equal(t, 7, page)
	assert.Equal(t, 7, all)
	assert.Equal(t, 7, detail)
	assert.Equal(t, 1, f.mutations.PendingCount())

	close(release)
	require.Error(t, <-done)

	page, all, detail = stockOf(t, f, 1)
	assert.Equal(t, 10, page)
	assert.Equal(t, 10, all)
	assert.Equal(t, 10, detail)
	assert.True(t, f.mutations.HasError())
}

func TestSaleRegister_SuccessCachesReceipt(t *testing.T) {
	f, sales := newSaleFixture(t, testProduct(1, 10), testProduct(2, 4))

	res, err := sales.Register(context.Background(), domain.SaleDraft{
		DraftID: "draft-1",
		Items: []domain.SaleLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "R-0001", res.Data.ReceiptNumber)

	_, _, one := stockOf(t, f, 1)
	_, _, two := stockOf(t, f, 2)
	assert.Equal(t, 7, one)
	assert.Equal(t, 0, two)

	sale, ok := GetQueryData[domain.Sale](f.queries, domain.SaleKey("R-0001"))
	require.True(t, ok)
	assert.Equal(t, "R-0001", sale.ReceiptNumber)
}

func TestSaleRegister_RejectsDuplicateDraft(t *testing.T) {
	f, sales := newSaleFixture(t, testProduct(1, 10))
	draft := domain.SaleDraft{DraftID: "draft-1", Items: []domain.SaleLine{{ProductID: 1, Quantity: 1}}}

	_, err := sales.Register(context.Background(), draft)
	require.NoError(t, err)

	_, err = sales.Register(context.Background(), draft)
	require.ErrorIs(t, err, domain.ErrDuplicateMutation)
	assert.Equal(t, 1, f.api.callCount("RegisterSale"))
	_, _, detail := stockOf(t, f, 1)
	assert.Equal(t, 9, detail, "duplicate must not decrement again")
}

func TestSaleRegister_OfflineQueuesOnce(t *testing.T) {
	f, sales := newSaleFixture(t, testProduct(1, 10))
	f.online.set(false)
	draft := domain.SaleDraft{DraftID: "draft-2", Items: []domain.SaleLine{{ProductID: 1, Quantity: 2}}}

	res, err := sales.Register(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, res.Queued)

	_, err = sales.Register(context.Background(), draft)
	require.ErrorIs(t, err, domain.ErrDuplicateMutation)

	_, _, detail := stockOf(t, f, 1)
	assert.Equal(t, 8, detail)

	f.online.set(true)
	require.NoError(t, f.mutations.ResumePaused(context.Background()))
	assert.Equal(t, 1, f.api.callCount("RegisterSale"))
	assert.Zero(t, f.mutations.PendingCount())
}

func TestSaleRegister_InvalidDraft(t *testing.T) {
	f, sales := newSaleFixture(t, testProduct(1, 10))
	before := f.values(t)

	_, err := sales.Register(context.Background(), domain.SaleDraft{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = sales.Register(context.Background(), domain.SaleDraft{Items: []domain.SaleLine{{ProductID: 1, Quantity: 0}}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, before, f.values(t))
	assert.Zero(t, f.api.totalCalls())
}
