package domain

import "strings"

// Supplier is the short form of a supplier used in pickers and product rows.
type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Contact string `json:"contacto,omitempty"`
}

// BankAccount belongs to a supplier legal entity.
type BankAccount struct {
	ID            int64  `json:"id,omitempty"`
	CBU           string `json:"cbu"`
	Alias         string `json:"alias"`
	AccountType   string `json:"tipoCuenta"`
	AccountNumber string `json:"numeroCuenta"`
	Holder        string `json:"titular"`
}

// LegalEntity is one of the business names a supplier invoices under.
type LegalEntity struct {
	ID              int64         `json:"id,omitempty"`
	Name            string        `json:"nombre"`
	ListDiscount    string        `json:"descuentoSobreLista"`
	InvoiceDiscount string        `json:"descuentoSobreFactura"`
	BankAccounts    []BankAccount `json:"cuentasBancarias"`
}

// SupplierDetail is the full supplier record.
type SupplierDetail struct {
	ID                 int64         `json:"id,omitempty"`
	Name               string        `json:"nombre"`
	TaxID              string        `json:"cuit"`
	Street             string        `json:"calle"`
	StreetNumber       string        `json:"altura"`
	PostalCode         string        `json:"codigoPostal"`
	Province           string        `json:"provincia"`
	City               string        `json:"ciudad"`
	Phone              string        `json:"telefonoFijo"`
	Mobile             string        `json:"celular"`
	CarrierName        string        `json:"nombreTransporte"`
	CarrierAddress     string        `json:"domicilioTransporte"`
	CarrierPhone       string        `json:"telefonoTransporte"`
	Website            string        `json:"paginaWeb"`
	WebsiteUser        string        `json:"usuarioPagina"`
	WebsitePassword    string        `json:"contrasenaPagina"`
	SalesContact1      string        `json:"responsableVentas1"`
	SalesContact2      string        `json:"responsableVentas2"`
	PaymentTerms       string        `json:"condicionVenta"`
	Currency           string        `json:"moneda"`
	RateType           string        `json:"tipoCotizacion"`
	ManualRate         float64       `json:"valorCotizacionManual"`
	Notes              string        `json:"observaciones"`
	LegalEntities      []LegalEntity `json:"razonesSociales"`
}

// Summary returns the short form of the supplier.
func (s SupplierDetail) Summary() Supplier {
	return Supplier{ID: s.ID, Name: s.Name, Contact: s.SalesContact1}
}

// Validate checks the fields the server requires.
func (s SupplierDetail) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return wrapInvalid("supplier name is required")
	}
	return nil
}
