package domain

import (
	"net/url"
	"strconv"
)

// QueryFamily names a group of cached server collections.
type QueryFamily string

// Query families.
const (
	FamilyProducts             QueryFamily = "products"
	FamilyProduct              QueryFamily = "product"
	FamilyAllProducts          QueryFamily = "allProducts"
	FamilyRelatedProducts      QueryFamily = "relatedProducts"
	FamilySuppliers            QueryFamily = "proveedores"
	FamilySupplierDetails      QueryFamily = "proveedoresDetallados"
	FamilySupplier             QueryFamily = "proveedor"
	FamilyCategories           QueryFamily = "tiposProducto"
	FamilyCategory             QueryFamily = "tipoProducto"
	FamilyCategoriesBySupplier QueryFamily = "tiposProductoByProveedor"
	FamilySales                QueryFamily = "ventas"
	FamilySale                 QueryFamily = "venta"
	FamilyExchangeRates        QueryFamily = "dolar"
	FamilyServerStatus         QueryFamily = "syncStatus"
)

// QueryKey identifies one cached query result. Keys are comparable and equal
// parameters always yield equal keys, so they can be used as map keys.
type QueryKey struct {
	Family QueryFamily `json:"family"`
	Scope  string      `json:"scope,omitempty"`
}

func (k QueryKey) String() string {
	if k.Scope == "" {
		return string(k.Family)
	}
	return string(k.Family) + "?" + k.Scope
}

// Params decodes the key scope.
func (k QueryKey) Params() url.Values {
	v, err := url.ParseQuery(k.Scope)
	if err != nil {
		return url.Values{}
	}
	return v
}

// ID returns the "id" parameter of a single-entity key.
func (k QueryKey) ID() (int64, bool) {
	raw := k.Params().Get("id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func idKey(f QueryFamily, id int64) QueryKey {
	return QueryKey{Family: f, Scope: url.Values{"id": {strconv.FormatInt(id, 10)}}.Encode()}
}

// ProductsPageKey is the key of one products listing page.
func ProductsPageKey(q ProductPageQuery) QueryKey {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	v.Set("sort", q.SortBy+","+string(q.Order))
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.SupplierID != 0 {
		v.Set("supplier", strconv.FormatInt(q.SupplierID, 10))
	}
	if q.CategoryID != 0 {
		v.Set("category", strconv.FormatInt(q.CategoryID, 10))
	}
	return QueryKey{Family: FamilyProducts, Scope: v.Encode()}
}

// ProductPageQueryFromKey recovers the listing parameters from a page key.
func ProductPageQueryFromKey(k QueryKey) (ProductPageQuery, bool) {
	if k.Family != FamilyProducts {
		return ProductPageQuery{}, false
	}
	v := k.Params()
	q := ProductPageQuery{Search: v.Get("q")}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.Size, _ = strconv.Atoi(v.Get("size"))
	q.SupplierID, _ = strconv.ParseInt(v.Get("supplier"), 10, 64)
	q.CategoryID, _ = strconv.ParseInt(v.Get("category"), 10, 64)
	if sort := v.Get("sort"); sort != "" {
		for i := len(sort) - 1; i >= 0; i-- {
			if sort[i] == ',' {
				q.SortBy, q.Order = sort[:i], SortOrder(sort[i+1:])
				break
			}
		}
	}
	return q.Normalize(), true
}

// ProductKey is the key of a single product.
func ProductKey(id int64) QueryKey { return idKey(FamilyProduct, id) }

// AllProductsKey is the key of the unpaginated products list.
func AllProductsKey() QueryKey { return QueryKey{Family: FamilyAllProducts} }

// RelatedProductsKey is the key of the products related to id.
func RelatedProductsKey(id int64) QueryKey { return idKey(FamilyRelatedProducts, id) }

// SuppliersKey is the key of the supplier summaries.
func SuppliersKey() QueryKey { return QueryKey{Family: FamilySuppliers} }

// SupplierDetailsKey is the key of the full supplier records.
func SupplierDetailsKey() QueryKey { return QueryKey{Family: FamilySupplierDetails} }

// SupplierKey is the key of one supplier record.
func SupplierKey(id int64) QueryKey { return idKey(FamilySupplier, id) }

// CategoriesKey is the key of all categories.
func CategoriesKey() QueryKey { return QueryKey{Family: FamilyCategories} }

// CategoryKey is the key of one category.
func CategoryKey(id int64) QueryKey { return idKey(FamilyCategory, id) }

// CategoriesBySupplierKey is the key of the categories used by a supplier's products.
func CategoriesBySupplierKey(supplierID int64) QueryKey {
	return idKey(FamilyCategoriesBySupplier, supplierID)
}

// SalesKey is the key of the sales history.
func SalesKey() QueryKey { return QueryKey{Family: FamilySales} }

// SaleKey is the key of a sale looked up by receipt number.
func SaleKey(receipt string) QueryKey {
	return QueryKey{Family: FamilySale, Scope: url.Values{"receipt": {receipt}}.Encode()}
}

// ExchangeRatesKey is the key of the USD quotes.
func ExchangeRatesKey() QueryKey { return QueryKey{Family: FamilyExchangeRates} }

// ServerStatusKey is the key of the server replication status.
func ServerStatusKey() QueryKey { return QueryKey{Family: FamilyServerStatus} }

// QueryFilter selects cache entries. The zero value matches every entry.
type QueryFilter struct {
	// Family restricts matches to one family when set.
	Family QueryFamily
	// Key restricts matches to exactly one key when Exact is true.
	Key   QueryKey
	Exact bool
	// Predicate further narrows matches when set.
	Predicate func(QueryKey) bool
}

// AllQueries matches every entry.
func AllQueries() QueryFilter { return QueryFilter{} }

// ByFamily matches every entry of a family.
func ByFamily(f QueryFamily) QueryFilter { return QueryFilter{Family: f} }

// ByKey matches exactly one entry.
func ByKey(k QueryKey) QueryFilter { return QueryFilter{Key: k, Exact: true} }

// Matches reports whether k is selected by the filter.
func (f QueryFilter) Matches(k QueryKey) bool {
	if f.Exact && f.Key != k {
		return false
	}
	if f.Family != "" && f.Family != k.Family {
		return false
	}
	if f.Predicate != nil && !f.Predicate(k) {
		return false
	}
	return true
}

// ProductPagesFilteredByCategory matches products pages restricted to a category.
func ProductPagesFilteredByCategory() QueryFilter {
	return QueryFilter{Family: FamilyProducts, Predicate: func(k QueryKey) bool {
		return k.Params().Get("category") != ""
	}}
}
