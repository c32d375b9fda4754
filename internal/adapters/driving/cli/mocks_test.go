package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/stockline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/services"
)

type mockCatalog struct {
	page       domain.Page[domain.Product]
	product    domain.Product
	related    []domain.RelatedProduct
	suppliers  []domain.Supplier
	supplier   domain.SupplierDetail
	categories []domain.Category
	bySupplier map[int64][]domain.Category
	sales      []domain.Sale
	sale       domain.Sale
	rates      []domain.ExchangeRate
	err        error
	staleErr   error
	lastQuery  domain.ProductPageQuery
}

func cached[T any](m *mockCatalog, v T) (domain.Cached[T], error) {
	if m.err != nil {
		return domain.Cached[T]{}, m.err
	}
	return domain.Cached[T]{Data: v, Err: m.staleErr, Stale: m.staleErr != nil}, nil
}

func (m *mockCatalog) Products(_ context.Context, q domain.ProductPageQuery) (domain.Cached[domain.Page[domain.Product]], error) {
	m.lastQuery = q
	return cached(m, m.page)
}

func (m *mockCatalog) AllProducts(context.Context) (domain.Cached[[]domain.Product], error) {
	return cached(m, m.page.Content)
}

func (m *mockCatalog) Product(_ context.Context, id int64) (domain.Cached[domain.Product], error) {
	p := m.product
	p.ID = id
	return cached(m, p)
}

func (m *mockCatalog) RelatedProducts(context.Context, int64) (domain.Cached[[]domain.RelatedProduct], error) {
	return cached(m, m.related)
}

func (m *mockCatalog) Suppliers(context.Context) (domain.Cached[[]domain.Supplier], error) {
	return cached(m, m.suppliers)
}

func (m *mockCatalog) SupplierDetails(context.Context) (domain.Cached[[]domain.SupplierDetail], error) {
	return cached(m, []domain.SupplierDetail{m.supplier})
}

func (m *mockCatalog) Supplier(_ context.Context, id int64) (domain.Cached[domain.SupplierDetail], error) {
	s := m.supplier
	s.ID = id
	return cached(m, s)
}

func (m *mockCatalog) Categories(context.Context) (domain.Cached[[]domain.Category], error) {
	return cached(m, m.categories)
}

func (m *mockCatalog) Category(_ context.Context, id int64) (domain.Cached[domain.Category], error) {
	for _, c := range m.categories {
		if c.ID == id {
			return cached(m, c)
		}
	}
	return domain.Cached[domain.Category]{}, domain.ErrNotFound
}

func (m *mockCatalog) CategoriesBySupplier(_ context.Context, id int64) (domain.Cached[[]domain.Category], error) {
	return cached(m, m.bySupplier[id])
}

func (m *mockCatalog) Sales(context.Context) (domain.Cached[[]domain.Sale], error) {
	return cached(m, m.sales)
}

func (m *mockCatalog) Sale(_ context.Context, receipt string) (domain.Cached[domain.Sale], error) {
	s := m.sale
	s.ReceiptNumber = receipt
	return cached(m, s)
}

func (m *mockCatalog) ExchangeRates(context.Context) (domain.Cached[[]domain.ExchangeRate], error) {
	return cached(m, m.rates)
}

type mockProducts struct {
	queued    bool
	err       error
	payload   domain.ProductPayload
	related   []int64
	updatedID int64
	field     domain.ProductField
	value     float64
	deleted   []int64
	bulk      bool
	relation  [2]int64
	uploaded  []domain.ProductPayload
}

func (m *mockProducts) result(p domain.Product) (domain.MutationResult[domain.Product], error) {
	if m.err != nil {
		return domain.MutationResult[domain.Product]{}, m.err
	}
	return domain.MutationResult[domain.Product]{Data: p, RecordID: "rec-1", Queued: m.queued}, nil
}

func (m *mockProducts) done() (domain.MutationResult[struct{}], error) {
	if m.err != nil {
		return domain.MutationResult[struct{}]{}, m.err
	}
	return domain.MutationResult[struct{}]{RecordID: "rec-1", Queued: m.queued}, nil
}

func (m *mockProducts) Create(_ context.Context, in domain.ProductPayload, relatedIDs ...int64) (domain.MutationResult[domain.Product], error) {
	m.payload = in
	m.related = relatedIDs
	if err := in.Validate(); err != nil {
		return domain.MutationResult[domain.Product]{}, err
	}
	id := int64(101)
	if m.queued {
		id = domain.TempIDThreshold + 5
	}
	return m.result(domain.ProductFromPayload(id, in, 1000))
}

func (m *mockProducts) Update(_ context.Context, id int64, in domain.ProductPayload) (domain.MutationResult[domain.Product], error) {
	m.updatedID = id
	m.payload = in
	return m.result(domain.ProductFromPayload(id, in, 1000))
}

func (m *mockProducts) UpdateField(_ context.Context, id int64, f domain.ProductField, v float64) (domain.MutationResult[domain.Product], error) {
	m.updatedID, m.field, m.value = id, f, v
	return m.result(domain.Product{ID: id, PublicPrice: 1500})
}

func (m *mockProducts) Delete(_ context.Context, id int64) (domain.MutationResult[struct{}], error) {
	m.deleted = []int64{id}
	return m.done()
}

func (m *mockProducts) BulkDelete(_ context.Context, ids []int64) (domain.MutationResult[struct{}], error) {
	m.deleted = ids
	m.bulk = true
	return m.done()
}

func (m *mockProducts) Relate(_ context.Context, a, b int64) (domain.MutationResult[struct{}], error) {
	m.relation = [2]int64{a, b}
	return m.done()
}

func (m *mockProducts) Unrelate(_ context.Context, a, b int64) (domain.MutationResult[struct{}], error) {
	m.relation = [2]int64{-a, -b}
	return m.done()
}

func (m *mockProducts) BulkUpload(_ context.Context, in []domain.ProductPayload) (domain.MutationResult[struct{}], error) {
	m.uploaded = in
	return m.done()
}

type mockSuppliers struct {
	queued  bool
	created domain.SupplierDetail
	updated domain.SupplierDetail
	deleted int64
}

func (m *mockSuppliers) Create(_ context.Context, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error) {
	if err := in.Validate(); err != nil {
		return domain.MutationResult[domain.SupplierDetail]{}, err
	}
	m.created = in
	in.ID = 7
	return domain.MutationResult[domain.SupplierDetail]{Data: in, Queued: m.queued}, nil
}

func (m *mockSuppliers) Update(_ context.Context, id int64, in domain.SupplierDetail) (domain.MutationResult[domain.SupplierDetail], error) {
	in.ID = id
	m.updated = in
	return domain.MutationResult[domain.SupplierDetail]{Data: in, Queued: m.queued}, nil
}

func (m *mockSuppliers) Delete(_ context.Context, id int64) (domain.MutationResult[struct{}], error) {
	m.deleted = id
	return domain.MutationResult[struct{}]{Queued: m.queued}, nil
}

type mockCategories struct {
	created []domain.CategoryPayload
	bulk    bool
	renamed domain.CategoryPayload
	deleted int64
}

func (m *mockCategories) Create(_ context.Context, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error) {
	m.created = []domain.CategoryPayload{in}
	return domain.MutationResult[domain.Category]{Data: domain.Category{ID: 3, Name: in.Name}}, nil
}

func (m *mockCategories) BulkCreate(_ context.Context, in []domain.CategoryPayload) (domain.MutationResult[[]domain.Category], error) {
	m.created = in
	m.bulk = true
	out := make([]domain.Category, 0, len(in))
	for i, c := range in {
		out = append(out, domain.Category{ID: int64(10 + i), Name: c.Name})
	}
	return domain.MutationResult[[]domain.Category]{Data: out}, nil
}

func (m *mockCategories) Update(_ context.Context, id int64, in domain.CategoryPayload) (domain.MutationResult[domain.Category], error) {
	m.renamed = in
	return domain.MutationResult[domain.Category]{Data: domain.Category{ID: id, Name: in.Name}}, nil
}

func (m *mockCategories) Delete(_ context.Context, id int64) (domain.MutationResult[struct{}], error) {
	m.deleted = id
	return domain.MutationResult[struct{}]{}, nil
}

type mockSales struct {
	queued bool
	drafts map[string]bool
	last   domain.SaleDraft
}

func (m *mockSales) Register(_ context.Context, d domain.SaleDraft) (domain.MutationResult[domain.Sale], error) {
	if err := d.Validate(); err != nil {
		return domain.MutationResult[domain.Sale]{}, err
	}
	if m.drafts == nil {
		m.drafts = map[string]bool{}
	}
	if m.drafts[d.DraftID] {
		return domain.MutationResult[domain.Sale]{}, domain.ErrDuplicateMutation
	}
	m.drafts[d.DraftID] = true
	m.last = d
	return domain.MutationResult[domain.Sale]{
		Data:   domain.Sale{ReceiptNumber: "0001-00000042", Total: 2500},
		Queued: m.queued,
	}, nil
}

type mockRates struct {
	message string
	queued  bool
	calls   int
}

func (m *mockRates) ForceUpdate(context.Context) (domain.MutationResult[string], error) {
	m.calls++
	return domain.MutationResult[string]{Data: m.message, Queued: m.queued}, nil
}

type mockQueue struct {
	records  []domain.MutationRecord
	flushErr error
	flushed  bool
	acked    []string
}

func (m *mockQueue) Records() []domain.MutationRecord { return m.records }

func (m *mockQueue) Flush(context.Context) error {
	if m.flushErr != nil {
		return m.flushErr
	}
	m.flushed = true
	kept := []domain.MutationRecord{}
	for _, r := range m.records {
		if r.Status == domain.MutationError {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *mockQueue) Ack(id string) error {
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			m.acked = append(m.acked, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockQueue) AckAll() int {
	n := len(m.records)
	m.records = nil
	return n
}

type mockSync struct {
	state      domain.SyncState
	refreshed  domain.SyncState
	refreshErr error
	refreshes  int
}

func (m *mockSync) State() domain.SyncState { return m.state }

func (m *mockSync) Refresh(context.Context) (domain.SyncState, error) {
	m.refreshes++
	if m.refreshErr != nil {
		return m.state, m.refreshErr
	}
	return m.refreshed, nil
}

func (m *mockSync) Subscribe(func(domain.SyncState)) func() { return func() {} }

type mockAuth struct {
	token  *domain.AuthToken
	logins []string
}

func (m *mockAuth) Login(_ context.Context, raw string) (*domain.AuthToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrInvalidInput
	}
	m.logins = append(m.logins, raw)
	m.token = &domain.AuthToken{AccessToken: raw, TokenType: "Bearer", Subject: "ana"}
	return m.token, nil
}

func (m *mockAuth) Logout(context.Context) error {
	m.token = nil
	return nil
}

func (m *mockAuth) Status(context.Context) (*domain.AuthToken, error) {
	if m.token == nil {
		return nil, domain.ErrAuthRequired
	}
	return m.token, nil
}

type lifecycle struct {
	opens    int
	closes   int
	releases int
}

type fakes struct {
	catalog    *mockCatalog
	products   *mockProducts
	suppliers  *mockSuppliers
	categories *mockCategories
	sales      *mockSales
	rates      *mockRates
	queue      *mockQueue
	sync       *mockSync
	auth       *mockAuth
	settings   *services.SettingsService
	life       *lifecycle
}

// setupFakes installs mock services and restores globals after the test.
func setupFakes(t *testing.T) *fakes {
	t.Helper()
	f := &fakes{
		catalog:    &mockCatalog{},
		products:   &mockProducts{},
		suppliers:  &mockSuppliers{},
		categories: &mockCategories{},
		sales:      &mockSales{},
		rates:      &mockRates{},
		queue:      &mockQueue{},
		sync:       &mockSync{},
		auth:       &mockAuth{},
		settings:   services.NewSettingsService(memory.NewConfigStore()),
		life:       &lifecycle{},
	}
	SetServices(&Services{
		Settings:   f.settings,
		Auth:       f.auth,
		Catalog:    f.catalog,
		Products:   f.products,
		Suppliers:  f.suppliers,
		Categories: f.categories,
		Sales:      f.sales,
		Rates:      f.rates,
		Queue:      f.queue,
		Sync:       f.sync,
		Open: func(context.Context) error {
			f.life.opens++
			return nil
		},
		Close: func(context.Context) error {
			f.life.closes++
			return nil
		},
		Release: func() error {
			f.life.releases++
			return nil
		},
	})
	t.Cleanup(func() {
		SetServices(nil)
		SetServicesFactory(nil)
	})
	return f
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := Execute()
	return buf.String(), err
}

// resetFlags clears values left by earlier executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
