package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var productsCmd = &cobra.Command{
	Use:         "products",
	Aliases:     []string{"product"},
	Short:       "Browse and edit products",
	Annotations: clientAnnotation,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of products",
	Long: `List products one page at a time.

A numeric --search matches the product id; any other text matches the
description.`,
	Args: cobra.NoArgs,
	RunE: runProductsList,
}

var productsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsGet,
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	Long: `Create a product.

Prices are computed from the cost, VAT and margin. Non-fixed-cost products
take their cost in dollars (--net-cost); fixed-cost products take it in
pesos (--fixed-cost --cost-ars).`,
	Args: cobra.NoArgs,
	RunE: runProductsCreate,
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a product",
	Long:  `Change a product. Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsUpdate,
}

var productsSetFieldCmd = &cobra.Command{
	Use:   "set-field <id> <margin|net-cost> <value>",
	Short: "Change one pricing field and recompute prices",
	Args:  cobra.ExactArgs(3),
	RunE:  runProductsSetField,
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProductsDelete,
}

var productsRelateCmd = &cobra.Command{
	Use:   "relate <id> <related-id>",
	Short: "Link two products",
	Args:  cobra.ExactArgs(2),
	RunE:  runProductsRelate,
}

var productsUnrelateCmd = &cobra.Command{
	Use:   "unrelate <id> <related-id>",
	Short: "Remove a link between two products",
	Args:  cobra.ExactArgs(2),
	RunE:  runProductsUnrelate,
}

var productsRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "List the products linked to a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsRelated,
}

var productsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Create products from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsImport,
}

var (
	listQuery    domain.ProductPageQuery
	listOrder    string
	productInput productFlags
	createRelate []int64
)

// productFlags binds the editable product fields.
type productFlags struct {
	code        string
	description string
	quantity    int
	supplier    int64
	category    int64
	margin      float64
	vat         float64
	rounding    float64
	fixedCost   bool
	netCost     float64
	costARS     float64
}

func (f *productFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.code, "code", "", "Product code")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.IntVar(&f.quantity, "quantity", 0, "Units in stock")
	fs.Int64Var(&f.supplier, "supplier", 0, "Supplier id")
	fs.Int64Var(&f.category, "category", 0, "Category id")
	fs.Float64Var(&f.margin, "margin", 0, "Margin percent")
	fs.Float64Var(&f.vat, "vat", 0, "VAT as a fraction, e.g. 0.21")
	fs.Float64Var(&f.rounding, "rounding", 0, "Round the public price up to a multiple of this")
	fs.BoolVar(&f.fixedCost, "fixed-cost", false, "Cost is fixed in pesos")
	fs.Float64Var(&f.netCost, "net-cost", 0, "Cost before VAT, in dollars")
	fs.Float64Var(&f.costARS, "cost-ars", 0, "Cost in pesos, for fixed-cost products")
}

// apply copies the flags the user set onto p.
func (f *productFlags) apply(cmd *cobra.Command, p domain.ProductPayload) domain.ProductPayload {
	fs := cmd.Flags()
	if fs.Changed("code") {
		p.Code = f.code
	}
	if fs.Changed("description") {
		p.Description = f.description
	}
	if fs.Changed("quantity") {
		p.Quantity = f.quantity
	}
	if fs.Changed("supplier") {
		p.SupplierID = f.supplier
	}
	if fs.Changed("category") {
		p.CategoryID = f.category
	}
	if fs.Changed("margin") {
		p.MarginPercent = f.margin
	}
	if fs.Changed("vat") {
		p.VAT = f.vat
	}
	if fs.Changed("rounding") {
		r := f.rounding
		p.RoundingStep = &r
	}
	if fs.Changed("fixed-cost") {
		p.FixedCost = f.fixedCost
	}
	if fs.Changed("net-cost") {
		v := f.netCost
		p.NetCost = &v
	}
	if fs.Changed("cost-ars") {
		v := f.costARS
		p.CostARS = &v
	}
	return p
}

func init() {
	fs := productsListCmd.Flags()
	fs.IntVar(&listQuery.Page, "page", 0, "Page number, from 0")
	fs.IntVar(&listQuery.Size, "size", domain.DefaultPageSize, "Page size")
	fs.StringVar(&listQuery.Search, "search", "", "Product id or description text")
	fs.Int64Var(&listQuery.SupplierID, "supplier", 0, "Only this supplier's products")
	fs.Int64Var(&listQuery.CategoryID, "category", 0, "Only this category")
	fs.StringVar(&listQuery.SortBy, "sort", "id", "Sort field")
	fs.StringVar(&listOrder, "order", string(domain.SortDesc), "Sort order: asc or desc")

	productInput.bind(productsCreateCmd)
	productsCreateCmd.Flags().Int64SliceVar(&createRelate, "related", nil, "Link the new product to these ids")
	productInput.bind(productsUpdateCmd)

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsCmd.AddCommand(productsCreateCmd)
	productsCmd.AddCommand(productsUpdateCmd)
	productsCmd.AddCommand(productsSetFieldCmd)
	productsCmd.AddCommand(productsDeleteCmd)
	productsCmd.AddCommand(productsRelateCmd)
	productsCmd.AddCommand(productsUnrelateCmd)
	productsCmd.AddCommand(productsRelatedCmd)
	productsCmd.AddCommand(productsImportCmd)
	rootCmd.AddCommand(productsCmd)
}

func requireCatalog() error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	return nil
}

func requireProducts() error {
	if productCommands == nil {
		return errors.New("product service not configured")
	}
	return nil
}

func runProductsList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	q := listQuery
	q.Order = domain.SortOrder(listOrder)

	res, err := catalogService.Products(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}

	page := res.Data
	rows := make([][]string, 0, len(page.Content))
	for _, p := range page.Content {
		rows = append(rows, []string{
			formatID(p.ID), p.Code, p.Description, strconv.Itoa(p.Quantity), formatMoney(p.PublicPrice),
		})
	}
	printTable(cmd, []string{"ID", "CODE", "DESCRIPTION", "QTY", "PRICE"}, rows)
	cmd.Printf("Page %d of %d (%d products)\n", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
	return nil
}

func runProductsGet(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := catalogService.Product(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	printProduct(cmd, res.Data)
	return nil
}

func printProduct(cmd *cobra.Command, p domain.Product) {
	cmd.Printf("ID:           %s\n", formatID(p.ID))
	cmd.Printf("Code:         %s\n", p.Code)
	cmd.Printf("Description:  %s\n", p.Description)
	cmd.Printf("Quantity:     %d\n", p.Quantity)
	if p.FixedCost {
		cmd.Printf("Cost (ARS):   %s (fixed)\n", formatMoney(p.CostARS))
	} else {
		cmd.Printf("Net cost:     %s USD\n", formatMoney(p.NetCost))
		cmd.Printf("Cost:         %s USD / %s ARS\n", formatMoney(p.CostUSD), formatMoney(p.CostARS))
	}
	cmd.Printf("VAT:          %g\n", p.VAT)
	cmd.Printf("Margin:       %g%%\n", p.MarginPercent)
	cmd.Printf("Public price: %s\n", formatMoney(p.PublicPrice))
	if p.SupplierID != 0 {
		cmd.Printf("Supplier:     %d\n", p.SupplierID)
	}
	if p.CategoryID != 0 {
		cmd.Printf("Category:     %d\n", p.CategoryID)
	}
	if len(p.RelatedIDs) > 0 {
		cmd.Printf("Related:      %v\n", p.RelatedIDs)
	}
}

func runProductsCreate(cmd *cobra.Command, _ []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	in := productInput.apply(cmd, domain.ProductPayload{})
	res, err := productCommands.Create(cmd.Context(), in, createRelate...)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	printQueued(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	cmd.Printf("Created product %s (%s)\n", formatID(res.Data.ID), res.Data.Code)
	return nil
}

func runProductsUpdate(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	if err := requireProducts(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	existing, err := catalogService.Product(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	in := productInput.apply(cmd, domain.PayloadFromProduct(existing.Data))

	res, err := productCommands.Update(cmd.Context(), id, in)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	printQueued(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	cmd.Printf("Updated product %s, public price %s\n", formatID(id), formatMoney(res.Data.PublicPrice))
	return nil
}

func parseProductField(s string) (domain.ProductField, error) {
	switch s {
	case "margin", string(domain.FieldMarginPercent):
		return domain.FieldMarginPercent, nil
	case "net-cost", string(domain.FieldNetCost):
		return domain.FieldNetCost, nil
	}
	return "", fmt.Errorf("%w: unknown field %q, use margin or net-cost", domain.ErrInvalidInput, s)
}

func runProductsSetField(cmd *cobra.Command, args []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	field, err := parseProductField(args[1])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("%w: invalid value %q", domain.ErrInvalidInput, args[2])
	}

	res, err := productCommands.UpdateField(cmd.Context(), id, field, value)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Updated product %s, public price %s\n", formatID(id), formatMoney(res.Data.PublicPrice))
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	var res domain.MutationResult[struct{}]
	if len(ids) == 1 {
		res, err = productCommands.Delete(cmd.Context(), ids[0])
	} else {
		res, err = productCommands.BulkDelete(cmd.Context(), ids)
	}
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Deleted %d product(s)\n", len(ids))
	return nil
}

func runProductsRelate(cmd *cobra.Command, args []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	res, err := productCommands.Relate(cmd.Context(), ids[0], ids[1])
	if err != nil {
		return fmt.Errorf("failed to relate products: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Linked %d and %d\n", ids[0], ids[1])
	return nil
}

func runProductsUnrelate(cmd *cobra.Command, args []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	res, err := productCommands.Unrelate(cmd.Context(), ids[0], ids[1])
	if err != nil {
		return fmt.Errorf("failed to unrelate products: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Unlinked %d and %d\n", ids[0], ids[1])
	return nil
}

func runProductsRelated(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := catalogService.RelatedProducts(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to list related products: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if len(res.Data) == 0 {
		cmd.Println("No related products.")
		return nil
	}
	rows := make([][]string, 0, len(res.Data))
	for _, r := range res.Data {
		rows = append(rows, []string{formatID(r.ID), r.Description, r.SupplierName, r.CategoryName, formatMoney(r.PublicPrice)})
	}
	printTable(cmd, []string{"ID", "DESCRIPTION", "SUPPLIER", "CATEGORY", "PRICE"}, rows)
	return nil
}

func runProductsImport(cmd *cobra.Command, args []string) error {
	if err := requireProducts(); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var in []domain.ProductPayload
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: import file is not a JSON array of products: %v", domain.ErrInvalidInput, err)
	}
	if len(in) == 0 {
		return fmt.Errorf("%w: import file has no products", domain.ErrInvalidInput)
	}

	res, err := productCommands.BulkUpload(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("failed to import products: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Imported %d product(s)\n", len(in))
	return nil
}
