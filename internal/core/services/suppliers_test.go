package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

type supplierFixture struct {
	api       *mockInventory
	online    *switchable
	queries   *QueryCache
	mutations *MutationCache
	suppliers *SupplierMutations
}

func newSupplierFixture(t *testing.T, seed ...domain.SupplierDetail) *supplierFixture {
	t.Helper()
	f := &supplierFixture{
		api:       newMockInventory(),
		online:    &switchable{online: true},
		mutations: NewMutationCache(),
	}
	f.api.suppliers = append(f.api.suppliers, seed...)
	f.queries = NewQueryCache(QueryCacheOptions{Online: f.online})
	f.suppliers = NewSupplierMutations(f.queries, f.mutations, f.online, f.api)

	summaries := make([]domain.Supplier, 0, len(seed))
	for _, s := range seed {
		summaries = append(summaries, s.Summary())
		SetQueryData(f.queries, domain.SupplierKey(s.ID), s)
	}
	SetQueryData(f.queries, domain.SuppliersKey(), summaries)
	SetQueryData(f.queries, domain.SupplierDetailsKey(), append([]domain.SupplierDetail{}, seed...))
	return f
}

func (f *supplierFixture) names(t *testing.T) []string {
	t.Helper()
	rows, ok := GetQueryData[[]domain.Supplier](f.queries, domain.SuppliersKey())
	require.True(t, ok)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestSupplierCreate_OfflineAppendsToBothLists(t *testing.T) {
	f := newSupplierFixture(t, domain.SupplierDetail{ID: 1, Name: "Acme", SalesContact1: "Ana"})
	f.online.set(false)

	res, err := f.suppliers.Create(context.Background(), domain.SupplierDetail{Name: "Globex", TaxID: "30-1"})
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.True(t, domain.IsTempID(res.Data.ID))

	assert.Equal(t, []string{"Acme", "Globex"}, f.names(t))
	details, _ := GetQueryData[[]domain.SupplierDetail](f.queries, domain.SupplierDetailsKey())
	require.Len(t, details, 2)
	assert.Equal(t, "30-1", details[1].TaxID)

	summaries, _ := GetQueryData[[]domain.Supplier](f.queries, domain.SuppliersKey())
	assert.Equal(t, "Ana", summaries[0].Contact, "existing summaries keep their contact")
}

func TestSupplierCreate_OnlineReplacesTemporaryRow(t *testing.T) {
	f := newSupplierFixture(t)

	res, err := f.suppliers.Create(context.Background(), domain.SupplierDetail{Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), res.Data.ID)

	details, _ := GetQueryData[[]domain.SupplierDetail](f.queries, domain.SupplierDetailsKey())
	require.Len(t, details, 1)
	assert.Equal(t, int64(101), details[0].ID)
}

func TestSupplierCreate_RequiresName(t *testing.T) {
	f := newSupplierFixture(t)
	_, err := f.suppliers.Create(context.Background(), domain.SupplierDetail{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.mutations.Records())
}

func TestSupplierUpdate_FailureRollsBack(t *testing.T) {
	f := newSupplierFixture(t, domain.SupplierDetail{ID: 1, Name: "Acme"}, domain.SupplierDetail{ID: 2, Name: "Initech"})
	f.api.setErr("UpdateSupplier", serverError())
	before := cacheValues(t, f.queries)

	_, err := f.suppliers.Update(context.Background(), 2, domain.SupplierDetail{Name: "Initrode"})
	require.Error(t, err)
	assert.Equal(t, before, cacheValues(t, f.queries))
}

func TestSupplierUpdate_PatchesDetailEntry(t *testing.T) {
	f := newSupplierFixture(t, domain.SupplierDetail{ID: 1, Name: "Acme"})
	f.online.set(false)

	_, err := f.suppliers.Update(context.Background(), 1, domain.SupplierDetail{Name: "Acme SA", City: "Rosario"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme SA"}, f.names(t))
	detail, ok := GetQueryData[domain.SupplierDetail](f.queries, domain.SupplierKey(1))
	require.True(t, ok)
	assert.Equal(t, "Rosario", detail.City)
	assert.Equal(t, int64(1), detail.ID)
}

func TestSupplierDelete_TemporaryDropsQueuedCreate(t *testing.T) {
	f := newSupplierFixture(t, domain.SupplierDetail{ID: 1, Name: "Acme"})
	f.online.set(false)
	created, err := f.suppliers.Create(context.Background(), domain.SupplierDetail{Name: "Tmp"})
	require.NoError(t, err)
	f.online.set(true)

	_, err = f.suppliers.Delete(context.Background(), created.Data.ID)
	require.NoError(t, err)
	assert.Zero(t, f.api.totalCalls())
	assert.Empty(t, f.mutations.Records())
	assert.Equal(t, []string{"Acme"}, f.names(t))
}

func TestSupplierDelete_Online(t *testing.T) {
	f := newSupplierFixture(t, domain.SupplierDetail{ID: 1, Name: "Acme"}, domain.SupplierDetail{ID: 2, Name: "Initech"})

	_, err := f.suppliers.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.callCount("DeleteSupplier"))
	assert.Equal(t, []string{"Initech"}, f.names(t))
	_, ok := GetQueryData[domain.SupplierDetail](f.queries, domain.SupplierKey(1))
	assert.False(t, ok)
}
