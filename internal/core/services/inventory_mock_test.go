package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// --- Mock implementations shared by the services tests ---

// mockInventory implements driven.InventoryAPI over in-memory collections.
// Errors can be injected per method name; calls are counted per method name.
type mockInventory struct {
	mu sync.Mutex

	products   []domain.Product
	related    map[int64][]domain.RelatedProduct
	suppliers  []domain.SupplierDetail
	categories []domain.Category
	sales      []domain.Sale
	rates      []domain.ExchangeRate
	status     domain.ServerSyncStatus
	nextID     int64

	// watermarks are returned in order per collection; the last one repeats.
	watermarks map[domain.Collection][]int64

	errs  map[string]error
	calls map[string]int
	// block, when set for a method, is waited on before it returns.
	block map[string]chan struct{}
}

var _ driven.InventoryAPI = (*mockInventory)(nil)

func newMockInventory() *mockInventory {
	return &mockInventory{
		related:    make(map[int64][]domain.RelatedProduct),
		nextID:     100,
		watermarks: make(map[domain.Collection][]int64),
		errs:       make(map[string]error),
		calls:      make(map[string]int),
		block:      make(map[string]chan struct{}),
	}
}

func (m *mockInventory) setErr(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
}

func (m *mockInventory) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockInventory) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// enter records a call and returns the injected error, if any.
func (m *mockInventory) enter(ctx context.Context, method string) error {
	m.mu.Lock()
	m.calls[method]++
	err := m.errs[method]
	ch := m.block[method]
	m.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *mockInventory) ListProducts(ctx context.Context, q domain.ProductPageQuery) (domain.Page[domain.Product], error) {
	if err := m.enter(ctx, "ListProducts"); err != nil {
		return domain.Page[domain.Product]{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q = q.Normalize()
	var match []domain.Product
	for _, p := range m.products {
		if listingIncludes(q, p) {
			match = append(match, p)
		}
	}
	page := domain.Page[domain.Product]{Number: q.Page, Size: q.Size, TotalElements: len(match)}
	page.TotalPages = (len(match) + q.Size - 1) / q.Size
	start := q.Page * q.Size
	if start < len(match) {
		end := min(start+q.Size, len(match))
		page.Content = append([]domain.Product{}, match[start:end]...)
	}
	return page, nil
}

func (m *mockInventory) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := m.enter(ctx, "ListAllProducts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Product{}, m.products...), nil
}

func (m *mockInventory) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if err := m.enter(ctx, "GetProduct"); err != nil {
		return domain.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &domain.RemoteError{Status: 404, Message: "not found"}
}

func (m *mockInventory) CreateProduct(ctx context.Context, in domain.ProductPayload) (domain.Product, error) {
	if err := m.enter(ctx, "CreateProduct"); err != nil {
		return domain.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := domain.ProductFromPayload(m.nextID, in, 0)
	m.products = append(m.products, p)
	return p, nil
}

func (m *mockInventory) UpdateProduct(ctx context.Context, id int64, in domain.ProductPayload) (domain.Product, error) {
	if err := m.enter(ctx, "UpdateProduct"); err != nil {
		return domain.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products[i] = domain.ApplyPayload(p, in, 0)
			return m.products[i], nil
		}
	}
	return domain.Product{}, &domain.RemoteError{Status: 404}
}

func (m *mockInventory) DeleteProduct(ctx context.Context, id int64) error {
	return m.DeleteProducts(ctx, []int64{id})
}

func (m *mockInventory) DeleteProducts(ctx context.Context, ids []int64) error {
	if err := m.enter(ctx, "DeleteProducts"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	m.products, _ = removeProducts(m.products, drop)
	return nil
}

func (m *mockInventory) BulkUploadProducts(ctx context.Context, in []domain.ProductPayload) error {
	if err := m.enter(ctx, "BulkUploadProducts"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range in {
		m.nextID++
		m.products = append(m.products, domain.ProductFromPayload(m.nextID, p, 0))
	}
	return nil
}

func (m *mockInventory) RelatedProducts(ctx context.Context, id int64) ([]domain.RelatedProduct, error) {
	if err := m.enter(ctx, "RelatedProducts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RelatedProduct{}, m.related[id]...), nil
}

func (m *mockInventory) RelateProduct(ctx context.Context, rel domain.ProductRelation) error {
	return m.enter(ctx, "RelateProduct")
}

func (m *mockInventory) UnrelateProduct(ctx context.Context, rel domain.ProductRelation) error {
	return m.enter(ctx, "UnrelateProduct")
}

func (m *mockInventory) watermark(ctx context.Context, c domain.Collection, method string) (int64, error) {
	if err := m.enter(ctx, method); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seq := m.watermarks[c]
	if len(seq) == 0 {
		return 0, nil
	}
	v := seq[0]
	if len(seq) > 1 {
		m.watermarks[c] = seq[1:]
	}
	return v, nil
}

func (m *mockInventory) ProductsLastModified(ctx context.Context) (int64, error) {
	return m.watermark(ctx, domain.CollectionProducts, "ProductsLastModified")
}

func (m *mockInventory) ListSuppliers(ctx context.Context) ([]domain.SupplierDetail, error) {
	if err := m.enter(ctx, "ListSuppliers"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SupplierDetail{}, m.suppliers...), nil
}

func (m *mockInventory) GetSupplier(ctx context.Context, id int64) (domain.SupplierDetail, error) {
	if err := m.enter(ctx, "GetSupplier"); err != nil {
		return domain.SupplierDetail{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suppliers {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.SupplierDetail{}, &domain.RemoteError{Status: 404}
}

func (m *mockInventory) CreateSupplier(ctx context.Context, in domain.SupplierDetail) (domain.SupplierDetail, error) {
	if err := m.enter(ctx, "CreateSupplier"); err != nil {
		return domain.SupplierDetail{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	in.ID = m.nextID
	m.suppliers = append(m.suppliers, in)
	return in, nil
}

func (m *mockInventory) UpdateSupplier(ctx context.Context, id int64, in domain.SupplierDetail) (domain.SupplierDetail, error) {
	if err := m.enter(ctx, "UpdateSupplier"); err != nil {
		return domain.SupplierDetail{}, err
	}
	in.ID = id
	return in, nil
}

func (m *mockInventory) DeleteSupplier(ctx context.Context, id int64) error {
	return m.enter(ctx, "DeleteSupplier")
}

func (m *mockInventory) SuppliersLastModified(ctx context.Context) (int64, error) {
	return m.watermark(ctx, domain.CollectionSuppliers, "SuppliersLastModified")
}

func (m *mockInventory) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := m.enter(ctx, "ListCategories"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Category{}, m.categories...), nil
}

func (m *mockInventory) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	if err := m.enter(ctx, "GetCategory"); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id}, nil
}

func (m *mockInventory) CreateCategory(ctx context.Context, in domain.CategoryPayload) (domain.Category, error) {
	if err := m.enter(ctx, "CreateCategory"); err != nil {
		return domain.Category{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := domain.Category{ID: m.nextID, Name: in.Name}
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *mockInventory) CreateCategories(ctx context.Context, in []domain.CategoryPayload) ([]domain.Category, error) {
	if err := m.enter(ctx, "CreateCategories"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Category, 0, len(in))
	for _, p := range in {
		m.nextID++
		out = append(out, domain.Category{ID: m.nextID, Name: p.Name})
	}
	m.categories = append(m.categories, out...)
	return out, nil
}

func (m *mockInventory) UpdateCategory(ctx context.Context, id int64, in domain.CategoryPayload) (domain.Category, error) {
	if err := m.enter(ctx, "UpdateCategory"); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id, Name: in.Name}, nil
}

func (m *mockInventory) DeleteCategory(ctx context.Context, id int64) error {
	return m.enter(ctx, "DeleteCategory")
}

func (m *mockInventory) CategoriesLastModified(ctx context.Context) (int64, error) {
	return m.watermark(ctx, domain.CollectionCategories, "CategoriesLastModified")
}

func (m *mockInventory) RegisterSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	if err := m.enter(ctx, "RegisterSale"); err != nil {
		return domain.Sale{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	qty := draft.Quantities()
	for i, p := range m.products {
		m.products[i].Quantity = p.Quantity - qty[p.ID]
	}
	m.nextID++
	sale := domain.Sale{ID: m.nextID, ReceiptNumber: "R-0001"}
	m.sales = append(m.sales, sale)
	return sale, nil
}

func (m *mockInventory) ListSales(ctx context.Context) ([]domain.Sale, error) {
	if err := m.enter(ctx, "ListSales"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Sale{}, m.sales...), nil
}

func (m *mockInventory) GetSale(ctx context.Context, receipt string) (domain.Sale, error) {
	if err := m.enter(ctx, "GetSale"); err != nil {
		return domain.Sale{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.ReceiptNumber == receipt {
			return s, nil
		}
	}
	return domain.Sale{}, &domain.RemoteError{Status: 404}
}

func (m *mockInventory) ExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	if err := m.enter(ctx, "ExchangeRates"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ExchangeRate{}, m.rates...), nil
}

func (m *mockInventory) ForceExchangeRateUpdate(ctx context.Context) (string, error) {
	if err := m.enter(ctx, "ForceExchangeRateUpdate"); err != nil {
		return "", err
	}
	return "updated", nil
}

func (m *mockInventory) ServerStatus(ctx context.Context) (domain.ServerSyncStatus, error) {
	if err := m.enter(ctx, "ServerStatus"); err != nil {
		return domain.ServerSyncStatus{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

// switchable is an OnlineChecker tests can flip.
type switchable struct {
	mu     sync.Mutex
	online bool
}

func (s *switchable) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *switchable) set(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// serverError is a retryable 500 response.
func serverError() error { return &domain.RemoteError{Status: 500, Message: "boom"} }

func ptr[T any](v T) *T { return &v }

func testProduct(id int64, qty int) domain.Product {
	return domain.Product{ID: id, Code: "P" + string(rune('A'+id%26)), Description: "product", Quantity: qty}
}

// cacheValues returns the serialised value of every cached entry by key.
func cacheValues(t *testing.T, c *QueryCache) map[string]string {
	t.Helper()
	snap, err := c.Dehydrate()
	require.NoError(t, err)
	out := make(map[string]string, len(snap.Entries))
	for _, e := range snap.Entries {
		out[e.Key.String()] = string(e.Value)
	}
	return out
}
