package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.InventoryAPI = (*Client)(nil)

// Resource paths.
const (
	productsPath   = "/producto/productos"
	salesPath      = "/producto/ventas"
	suppliersPath  = "/proveedor/proveedores"
	categoriesPath = "/tipo-producto/tiposproducto"
	ratesPath      = "/dolar/dolar"
	statusPath     = "/api/engine/status"
	lastModified   = "/last-modified"
)

// HeaderIdempotencyKey carries the sale draft id so a retried sale can be
// recognised by the server.
const HeaderIdempotencyKey = "Idempotency-Key"

// Client implements driven.InventoryAPI over a Gateway.
type Client struct {
	gw driven.Gateway
}

// NewClient creates an API client.
func NewClient(gw driven.Gateway) *Client {
	return &Client{gw: gw}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	var opts *driven.RequestOptions
	if q != nil {
		opts = &driven.RequestOptions{Query: q}
	}
	resp, err := c.gw.Send(ctx, http.MethodGet, path, nil, opts)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.gw.Send(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp, out)
}

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// productQuery builds the listing query string. Numeric search terms match
// id or code; anything else matches description or code.
func productQuery(q domain.ProductPageQuery) url.Values {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.Search != "" {
		if q.SearchIsNumeric() {
			v.Set("id", q.Search)
		} else {
			v.Set("descripcion", q.Search)
		}
		v.Set("codigoProducto", q.Search)
	}
	if q.SupplierID != 0 {
		v.Set("proveedorId", strconv.FormatInt(q.SupplierID, 10))
	}
	if q.CategoryID != 0 {
		v.Set("tipoId", strconv.FormatInt(q.CategoryID, 10))
	}
	v.Set("sort", q.SortParam())
	return v
}

func (c *Client) ListProducts(ctx context.Context, q domain.ProductPageQuery) (domain.Page[domain.Product], error) {
	var page *domain.Page[domain.Product]
	if err := c.get(ctx, productsPath, productQuery(q), &page); err != nil {
		return domain.Page[domain.Product]{}, err
	}
	if page == nil {
		return domain.EmptyPage[domain.Product](q.Normalize().Size), nil
	}
	if page.Content == nil {
		page.Content = []domain.Product{}
	}
	return *page, nil
}

func (c *Client) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	if err := c.get(ctx, productsPath+"/", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var out domain.Product
	err := c.get(ctx, itemPath(productsPath, id), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, in domain.ProductPayload) (domain.Product, error) {
	var out domain.Product
	err := c.send(ctx, http.MethodPost, productsPath, in, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in domain.ProductPayload) (domain.Product, error) {
	var out domain.Product
	err := c.send(ctx, http.MethodPut, itemPath(productsPath, id), in, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath(productsPath, id), nil, nil)
}

func (c *Client) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.send(ctx, http.MethodDelete, productsPath+"/delete-multiple", ids, nil)
}

func (c *Client) BulkUploadProducts(ctx context.Context, in []domain.ProductPayload) error {
	return c.send(ctx, http.MethodPost, productsPath+"/cargar-masivo", in, nil)
}

func (c *Client) RelatedProducts(ctx context.Context, id int64) ([]domain.RelatedProduct, error) {
	out := []domain.RelatedProduct{}
	if err := c.get(ctx, itemPath(productsPath, id)+"/relacionados", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) RelateProduct(ctx context.Context, rel domain.ProductRelation) error {
	return c.send(ctx, http.MethodPost, productsPath+"/relaciones", rel, nil)
}

func (c *Client) UnrelateProduct(ctx context.Context, rel domain.ProductRelation) error {
	return c.send(ctx, http.MethodDelete, productsPath+"/relaciones", rel, nil)
}

func (c *Client) ProductsLastModified(ctx context.Context) (int64, error) {
	return c.watermark(ctx, productsPath)
}

func (c *Client) ListSuppliers(ctx context.Context) ([]domain.SupplierDetail, error) {
	out := []domain.SupplierDetail{}
	if err := c.get(ctx, suppliersPath, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetSupplier(ctx context.Context, id int64) (domain.SupplierDetail, error) {
	var out domain.SupplierDetail
	err := c.get(ctx, itemPath(suppliersPath, id), nil, &out)
	return out, err
}

func (c *Client) CreateSupplier(ctx context.Context, in domain.SupplierDetail) (domain.SupplierDetail, error) {
	in.ID = 0
	var out domain.SupplierDetail
	err := c.send(ctx, http.MethodPost, suppliersPath, in, &out)
	return out, err
}

func (c *Client) UpdateSupplier(ctx context.Context, id int64, in domain.SupplierDetail) (domain.SupplierDetail, error) {
	in.ID = id
	var out domain.SupplierDetail
	err := c.send(ctx, http.MethodPut, itemPath(suppliersPath, id), in, &out)
	return out, err
}

func (c *Client) DeleteSupplier(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath(suppliersPath, id), nil, nil)
}

func (c *Client) SuppliersLastModified(ctx context.Context) (int64, error) {
	return c.watermark(ctx, suppliersPath)
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	if err := c.get(ctx, categoriesPath, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var out domain.Category
	err := c.get(ctx, itemPath(categoriesPath, id), nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, in domain.CategoryPayload) (domain.Category, error) {
	var out domain.Category
	err := c.send(ctx, http.MethodPost, categoriesPath, in, &out)
	return out, err
}

func (c *Client) CreateCategories(ctx context.Context, in []domain.CategoryPayload) ([]domain.Category, error) {
	out := []domain.Category{}
	if err := c.send(ctx, http.MethodPost, categoriesPath+"/bulk", in, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in domain.CategoryPayload) (domain.Category, error) {
	var out domain.Category
	err := c.send(ctx, http.MethodPut, itemPath(categoriesPath, id), in, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, itemPath(categoriesPath, id), nil, nil)
}

func (c *Client) CategoriesLastModified(ctx context.Context) (int64, error) {
	return c.watermark(ctx, categoriesPath)
}

func (c *Client) RegisterSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	var opts *driven.RequestOptions
	if draft.DraftID != "" {
		opts = &driven.RequestOptions{Headers: map[string]string{HeaderIdempotencyKey: draft.DraftID}}
	}
	resp, err := c.gw.Send(ctx, http.MethodPost, salesPath+"/registrar", draft, opts)
	if err != nil {
		return domain.Sale{}, err
	}
	var out domain.Sale
	err = decode(resp, &out)
	return out, err
}

func (c *Client) ListSales(ctx context.Context) ([]domain.Sale, error) {
	out := []domain.Sale{}
	if err := c.get(ctx, salesPath, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) GetSale(ctx context.Context, receipt string) (domain.Sale, error) {
	var out domain.Sale
	err := c.get(ctx, salesPath+"/comprobante/"+url.PathEscape(receipt), nil, &out)
	return out, err
}

func (c *Client) ExchangeRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	out := []domain.ExchangeRate{}
	if err := c.get(ctx, ratesPath, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ForceExchangeRateUpdate(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.send(ctx, http.MethodPost, ratesPath+"/force-update", nil, &out)
	return out.Message, err
}

func (c *Client) ServerStatus(ctx context.Context) (domain.ServerSyncStatus, error) {
	var out domain.ServerSyncStatus
	err := c.get(ctx, statusPath, nil, &out)
	return out, err
}

func (c *Client) watermark(ctx context.Context, base string) (int64, error) {
	var out struct {
		LastModified int64 `json:"lastModified"`
	}
	if err := c.get(ctx, base+lastModified, nil, &out); err != nil {
		return 0, err
	}
	return out.LastModified, nil
}

// nonNil turns a JSON null into an empty slice.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
