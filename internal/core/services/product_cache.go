package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// productRollback holds the product cache slices a write touched.
type productRollback struct {
	Pages   []EntryState
	All     EntryState
	Details []EntryState
	Related []EntryState
}

func captureProducts(c *QueryCache, detailIDs ...int64) productRollback {
	rb := productRollback{
		Pages: c.Capture(domain.ByFamily(domain.FamilyProducts)),
		All:   c.CaptureKey(domain.AllProductsKey()),
	}
	for _, id := range detailIDs {
		rb.Details = append(rb.Details, c.CaptureKey(domain.ProductKey(id)))
	}
	return rb
}

func (rb productRollback) restore(c *QueryCache) {
	states := append([]EntryState{}, rb.Pages...)
	states = append(states, rb.All)
	states = append(states, rb.Details...)
	states = append(states, rb.Related...)
	c.Restore(states...)
}

// patchProductPages applies fn to every cached products page. fn returns
// the new rows and the change in the total element count.
func patchProductPages(c *QueryCache, fn func(q domain.ProductPageQuery, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool)) int {
	return UpdateQueryData(c, domain.ByFamily(domain.FamilyProducts), func(key domain.QueryKey, page domain.Page[domain.Product]) (domain.Page[domain.Product], bool) {
		q, _ := domain.ProductPageQueryFromKey(key)
		return fn(q, page)
	})
}

func patchAllProducts(c *QueryCache, fn func([]domain.Product) ([]domain.Product, bool)) {
	UpdateQueryData(c, domain.ByKey(domain.AllProductsKey()), func(_ domain.QueryKey, all []domain.Product) ([]domain.Product, bool) {
		return fn(all)
	})
}

func patchProductDetail(c *QueryCache, id int64, fn func(domain.Product) domain.Product) {
	UpdateQueryData(c, domain.ByKey(domain.ProductKey(id)), func(_ domain.QueryKey, p domain.Product) (domain.Product, bool) {
		return fn(p), true
	})
}

// mapProducts replaces every row for which fn reports a change.
func mapProducts(rows []domain.Product, fn func(domain.Product) (domain.Product, bool)) ([]domain.Product, bool) {
	changed := false
	for i, p := range rows {
		if next, ok := fn(p); ok {
			rows[i] = next
			changed = true
		}
	}
	return rows, changed
}

// removeProducts drops rows whose id is in ids and returns how many were dropped.
func removeProducts(rows []domain.Product, ids map[int64]bool) ([]domain.Product, int) {
	kept := rows[:0]
	removed := 0
	for _, p := range rows {
		if ids[p.ID] {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	return kept, removed
}

// findCachedProduct looks a product up in the detail cache, the full list and
// every cached page, in that order.
func findCachedProduct(c *QueryCache, id int64) (domain.Product, bool) {
	if p, ok := GetQueryData[domain.Product](c, domain.ProductKey(id)); ok {
		return p, true
	}
	if all, ok := GetQueryData[[]domain.Product](c, domain.AllProductsKey()); ok {
		for _, p := range all {
			if p.ID == id {
				return p, true
			}
		}
	}
	for _, st := range c.Capture(domain.ByFamily(domain.FamilyProducts)) {
		page, ok := GetQueryData[domain.Page[domain.Product]](c, st.Key)
		if !ok {
			continue
		}
		for _, p := range page.Content {
			if p.ID == id {
				return p, true
			}
		}
	}
	return domain.Product{}, false
}

// listingIncludes reports whether a new row belongs on a listing page.
func listingIncludes(q domain.ProductPageQuery, p domain.Product) bool {
	if q.SupplierID != 0 && q.SupplierID != p.SupplierID {
		return false
	}
	if q.CategoryID != 0 && q.CategoryID != p.CategoryID {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	code := strings.ToLower(p.Code)
	if q.SearchIsNumeric() {
		return strconv.FormatInt(p.ID, 10) == term || strings.Contains(code, term)
	}
	return strings.Contains(strings.ToLower(p.Description), term) || strings.Contains(code, term)
}

// usdRate returns the cached exchange rate used for pricing, or zero.
func usdRate(c *QueryCache) float64 {
	rates, ok := GetQueryData[[]domain.ExchangeRate](c, domain.ExchangeRatesKey())
	if !ok || len(rates) == 0 {
		return 0
	}
	for _, r := range rates {
		if r.ID == 1 {
			return r.Price
		}
	}
	return rates[0].Price
}

func productListFilters() []domain.QueryFilter {
	return []domain.QueryFilter{
		domain.ByFamily(domain.FamilyProducts),
		domain.ByFamily(domain.FamilyAllProducts),
	}
}
