package domain

import (
	"strconv"
	"strings"
)

// Product is an inventory item as returned by the products endpoints.
// Prices are derived server-side from NetCost, VAT, MarginPercent and the
// current exchange rate; see ComputePrices for the local approximation.
type Product struct {
	ID             int64    `json:"id"`
	Code           string   `json:"codigoProducto"`
	Description    string   `json:"descripcion"`
	Quantity       int      `json:"cantidad"`
	VAT            float64  `json:"iva"`
	PublicPrice    float64  `json:"precio_publico"`
	RoundingStep   *float64 `json:"resto"`
	UnroundedPrice float64  `json:"precio_sin_redondear"`
	PublicPriceUSD float64  `json:"precio_publico_us"`
	MarginPercent  float64  `json:"porcentaje_ganancia"`
	CostUSD        float64  `json:"costo_dolares"`
	CostARS        float64  `json:"costo_pesos"`
	NetCost        float64  `json:"precio_sin_iva"`
	EntryDate      string   `json:"fecha_ingreso,omitempty"`
	SupplierID     int64    `json:"proveedorId,omitempty"`
	CategoryID     int64    `json:"tipoProductoId,omitempty"`
	FixedCost      bool     `json:"costoFijo"`
	RelatedIDs     []int64  `json:"productosRelacionadosIds"`
}

// IsTemporary reports whether the product only exists locally.
func (p Product) IsTemporary() bool {
	return IsTempID(p.ID)
}

// ProductPayload is the body of product create and update requests.
type ProductPayload struct {
	Code          string   `json:"codigoProducto"`
	Description   string   `json:"descripcion"`
	Quantity      int      `json:"cantidad"`
	SupplierID    int64    `json:"proveedorId"`
	CategoryID    int64    `json:"tipoProductoId"`
	MarginPercent float64  `json:"porcentaje_ganancia"`
	VAT           float64  `json:"iva"`
	RoundingStep  *float64 `json:"resto"`
	FixedCost     bool     `json:"costoFijo"`
	NetCost       *float64 `json:"precio_sin_iva,omitempty"`
	CostARS       *float64 `json:"costo_pesos,omitempty"`
}

// Validate checks the fields the server requires.
func (p ProductPayload) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return wrapInvalid("product code is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return wrapInvalid("product description is required")
	}
	if p.Quantity < 0 {
		return wrapInvalid("quantity cannot be negative")
	}
	if p.FixedCost && p.CostARS == nil {
		return wrapInvalid("fixed-cost products need costo_pesos")
	}
	if !p.FixedCost && p.NetCost == nil {
		return wrapInvalid("products need precio_sin_iva")
	}
	return nil
}

// ProductField names a single product attribute editable inline.
type ProductField string

// Inline-editable fields.
const (
	FieldMarginPercent ProductField = "porcentaje_ganancia"
	FieldNetCost       ProductField = "precio_sin_iva"
)

// IsValid returns true if the field can be edited inline.
func (f ProductField) IsValid() bool {
	return f == FieldMarginPercent || f == FieldNetCost
}

// PayloadFromProduct builds an update body from a cached product.
func PayloadFromProduct(p Product) ProductPayload {
	out := ProductPayload{
		Code:          p.Code,
		Description:   p.Description,
		Quantity:      p.Quantity,
		SupplierID:    p.SupplierID,
		CategoryID:    p.CategoryID,
		MarginPercent: p.MarginPercent,
		VAT:           p.VAT,
		RoundingStep:  p.RoundingStep,
		FixedCost:     p.FixedCost,
	}
	if p.FixedCost {
		cost := p.CostARS
		out.CostARS = &cost
	} else {
		net := p.NetCost
		out.NetCost = &net
	}
	return out
}

// WithField returns a copy of the payload with one inline field replaced.
func (p ProductPayload) WithField(f ProductField, value float64) ProductPayload {
	switch f {
	case FieldMarginPercent:
		p.MarginPercent = value
	case FieldNetCost:
		p.NetCost = &value
	}
	return p
}

// RelatedProduct is the summary shown for products linked to another product.
type RelatedProduct struct {
	ID           int64   `json:"id"`
	Description  string  `json:"descripcion"`
	SupplierName string  `json:"nombreProveedor"`
	PublicPrice  float64 `json:"precioPublico"`
	CategoryName string  `json:"nombreTipoProducto"`
}

// ProductRelation links two products.
type ProductRelation struct {
	ProductID int64 `json:"productoId"`
	RelatedID int64 `json:"productoRelacionadoId"`
}

// SortOrder is the direction of a product listing sort.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var sortableProductFields = map[string]bool{
	"codigoProducto":      true,
	"descripcion":         true,
	"cantidad":            true,
	"precio_publico":      true,
	"costo_pesos":         true,
	"costo_dolares":       true,
	"porcentaje_ganancia": true,
	"iva":                 true,
	"precio_sin_iva":      true,
	"id":                  true,
}

// ProductPageQuery holds the parameters of a paginated products listing.
type ProductPageQuery struct {
	Page       int
	Size       int
	Search     string
	SupplierID int64
	CategoryID int64
	SortBy     string
	Order      SortOrder
}

// DefaultPageSize is used when a query does not name a size.
const DefaultPageSize = 20

// Normalize fills defaults so equal listings produce equal cache keys.
func (q ProductPageQuery) Normalize() ProductPageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.SortBy == "" || q.Order == "" {
		q.SortBy, q.Order = "id", SortDesc
	}
	if !sortableProductFields[q.SortBy] {
		q.SortBy = "id"
	}
	if q.Order != SortAsc {
		q.Order = SortDesc
	}
	return q
}

// SortParam renders the sort as the API expects it ("field,order").
func (q ProductPageQuery) SortParam() string {
	n := q.Normalize()
	return n.SortBy + "," + string(n.Order)
}

// SearchIsNumeric reports whether the search term targets ids and codes.
func (q ProductPageQuery) SearchIsNumeric() bool {
	s := strings.TrimSpace(q.Search)
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
