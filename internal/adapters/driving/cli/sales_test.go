package cli

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestParseSaleLine(t *testing.T) {
	line, err := parseSaleLine("12:3")
	require.NoError(t, err)
	assert.Equal(t, domain.SaleLine{ProductID: 12, Quantity: 3}, line)

	line, err = parseSaleLine("12")
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)

	_, err = parseSaleLine("x:1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = parseSaleLine("12:many")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSalesRegister_GeneratesDraftID(t *testing.T) {
	f := setupFakes(t)

	out, err := execute(t, "sales", "register", "12:3", "40:1")
	require.NoError(t, err)

	d := f.sales.last
	_, parseErr := uuid.Parse(d.DraftID)
	assert.NoError(t, parseErr)
	assert.Equal(t, []domain.SaleLine{{ProductID: 12, Quantity: 3}, {ProductID: 40, Quantity: 1}}, d.Items)
	assert.Contains(t, out, "Registered sale 0001-00000042, total 2500.00")
}

func TestSalesRegister_DuplicateDraftRejected(t *testing.T) {
	setupFakes(t)

	_, err := execute(t, "sales", "register", "12:1", "--draft-id", "draft-1")
	require.NoError(t, err)
	_, err = execute(t, "sales", "register", "12:1", "--draft-id", "draft-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateMutation)
}

func TestSalesRegister_Queued(t *testing.T) {
	f := setupFakes(t)
	f.sales.queued = true

	out, err := execute(t, "sales", "register", "12:1", "--draft-id", "d-9")
	require.NoError(t, err)
	assert.Contains(t, out, "queued")
	assert.Contains(t, out, "Sale draft d-9 saved")
}

func TestSalesRegister_InvalidQuantity(t *testing.T) {
	setupFakes(t)

	_, err := execute(t, "sales", "register", "12:0")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSalesListAndGet(t *testing.T) {
	f := setupFakes(t)
	f.catalog.sales = []domain.Sale{{ReceiptNumber: "0001-1", Date: "2026-10-01", Total: 99.5, Items: []domain.SaleItem{{}, {}}}}
	f.catalog.sale = domain.Sale{Total: 40, Items: []domain.SaleItem{{ProductID: 3, ProductDescription: "Glue", Quantity: 2, UnitPrice: 20}}}

	out, err := execute(t, "sales", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0001-1")
	assert.Contains(t, out, "99.50")

	out, err = execute(t, "sales", "get", "0001-7")
	require.NoError(t, err)
	assert.Contains(t, out, "Receipt: 0001-7")
	assert.Contains(t, out, "Glue")
	assert.Contains(t, out, "Total:   40.00")
}

func TestRates(t *testing.T) {
	f := setupFakes(t)
	f.catalog.rates = []domain.ExchangeRate{{Name: "oficial", Price: 1015.5}}

	out, err := execute(t, "rates")
	require.NoError(t, err)
	assert.Contains(t, out, "oficial")
	assert.Contains(t, out, "1015.50")

	f.rates.message = "Cotizaciones actualizadas"
	out, err = execute(t, "rates", "refresh")
	require.NoError(t, err)
	assert.Equal(t, 1, f.rates.calls)
	assert.Contains(t, out, "Cotizaciones actualizadas")

	f.rates.message = ""
	f.rates.queued = true
	out, err = execute(t, "rates", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "queued")
	assert.NotContains(t, out, "Exchange rates refreshed")
}
