package domain

import "fmt"

// SaleItem is one line of a registered sale.
type SaleItem struct {
	ID                 int64   `json:"id"`
	ProductID          int64   `json:"productoId"`
	ProductDescription string  `json:"productoDescripcion"`
	Quantity           int     `json:"cantidad"`
	UnitPrice          float64 `json:"precioUnitario"`
}

// Sale is a registered sale with its receipt number.
type Sale struct {
	ID            int64      `json:"id"`
	ReceiptNumber string     `json:"numeroComprobante"`
	Date          string     `json:"fechaVenta"`
	Total         float64    `json:"totalVenta"`
	Items         []SaleItem `json:"items"`
}

// SaleLine is a product and quantity in a sale draft.
type SaleLine struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"cantidad"`
}

// SaleDraft is a sale about to be registered. DraftID identifies the draft
// across retries so a resubmitted draft is not applied twice.
type SaleDraft struct {
	DraftID string     `json:"-"`
	Items   []SaleLine `json:"items"`
}

// Validate checks the draft has at least one positive line and no temporary products.
func (d SaleDraft) Validate() error {
	if len(d.Items) == 0 {
		return wrapInvalid("sale has no items")
	}
	for _, it := range d.Items {
		if it.Quantity <= 0 {
			return wrapInvalid(fmt.Sprintf("product %d: quantity must be positive", it.ProductID))
		}
		if IsTempID(it.ProductID) {
			return wrapInvalid(fmt.Sprintf("product %d has not been saved yet", it.ProductID))
		}
	}
	return nil
}

// Quantities sums the draft quantities per product.
func (d SaleDraft) Quantities() map[int64]int {
	out := make(map[int64]int, len(d.Items))
	for _, it := range d.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

// ExchangeRate is a named USD quote used for pricing.
type ExchangeRate struct {
	ID    int64   `json:"id"`
	Name  string  `json:"nombre"`
	Price float64 `json:"precio"`
}

func wrapInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
