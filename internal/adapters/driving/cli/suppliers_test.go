package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestSuppliersList(t *testing.T) {
	f := setupFakes(t)

	out, err := execute(t, "suppliers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No suppliers.")

	f.catalog.suppliers = []domain.Supplier{{ID: 1, Name: "Acme", Contact: "Ana"}}
	out, err = execute(t, "suppliers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Ana")
}

func TestSuppliersGet(t *testing.T) {
	f := setupFakes(t)
	f.catalog.supplier = domain.SupplierDetail{
		Name:          "Acme",
		TaxID:         "30-1",
		LegalEntities: []domain.LegalEntity{{Name: "Acme SA", BankAccounts: []domain.BankAccount{{CBU: "1"}}}},
	}

	out, err := execute(t, "suppliers", "get", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ID:       3")
	assert.Contains(t, out, "CUIT:     30-1")
	assert.Contains(t, out, "Acme SA (1 bank accounts)")
}

func TestSuppliersCreate_FromFileWithOverrides(t *testing.T) {
	f := setupFakes(t)
	path := filepath.Join(t.TempDir(), "supplier.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nombre":"From file","cuit":"20-9","moneda":"USD"}`), 0o600))

	out, err := execute(t, "suppliers", "create", "--file", path, "--name", "Flag name")
	require.NoError(t, err)
	assert.Equal(t, "Flag name", f.suppliers.created.Name)
	assert.Equal(t, "20-9", f.suppliers.created.TaxID)
	assert.Equal(t, "USD", f.suppliers.created.Currency)
	assert.Contains(t, out, "Created supplier 7 (Flag name)")
}

func TestSuppliersCreate_RequiresName(t *testing.T) {
	setupFakes(t)

	_, err := execute(t, "suppliers", "create", "--phone", "123")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSuppliersUpdate_KeepsUnchangedFields(t *testing.T) {
	f := setupFakes(t)
	f.catalog.supplier = domain.SupplierDetail{Name: "Acme", Phone: "111", Notes: "old"}

	_, err := execute(t, "suppliers", "update", "3", "--notes", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.suppliers.updated.ID)
	assert.Equal(t, "Acme", f.suppliers.updated.Name)
	assert.Equal(t, "111", f.suppliers.updated.Phone)
	assert.Equal(t, "new", f.suppliers.updated.Notes)
}

func TestSuppliersDelete_Queued(t *testing.T) {
	f := setupFakes(t)
	f.suppliers.queued = true

	out, err := execute(t, "suppliers", "delete", "3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.suppliers.deleted)
	assert.Contains(t, out, "queued")
}

func TestCategoriesList(t *testing.T) {
	f := setupFakes(t)
	f.catalog.categories = []domain.Category{{ID: 1, Name: "Tools"}, {ID: 2, Name: "Paint"}}
	f.catalog.bySupplier = map[int64][]domain.Category{7: {{ID: 2, Name: "Paint"}}}

	out, err := execute(t, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tools")

	out, err = execute(t, "categories", "list", "--supplier", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Paint")
	assert.NotContains(t, out, "Tools")
}

func TestCategoriesCreate_SingleAndBulk(t *testing.T) {
	f := setupFakes(t)

	out, err := execute(t, "categories", "create", "Glue")
	require.NoError(t, err)
	assert.False(t, f.categories.bulk)
	assert.Contains(t, out, "Created category 3 (Glue)")

	out, err = execute(t, "categories", "create", "Wood", "Metal")
	require.NoError(t, err)
	assert.True(t, f.categories.bulk)
	assert.Len(t, f.categories.created, 2)
	assert.Contains(t, out, "Created 2 categories: Wood, Metal")
}

func TestCategoriesUpdateDelete(t *testing.T) {
	f := setupFakes(t)

	_, err := execute(t, "categories", "update", "2", "Paints")
	require.NoError(t, err)
	assert.Equal(t, "Paints", f.categories.renamed.Name)

	_, err = execute(t, "categories", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.categories.deleted)
}
