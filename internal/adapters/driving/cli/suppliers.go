package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var suppliersCmd = &cobra.Command{
	Use:         "suppliers",
	Aliases:     []string{"supplier"},
	Short:       "Browse and edit suppliers",
	Annotations: clientAnnotation,
}

var suppliersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suppliers",
	Args:  cobra.NoArgs,
	RunE:  runSuppliersList,
}

var suppliersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a supplier",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppliersGet,
}

var suppliersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a supplier",
	Long: `Create a supplier from flags, or from a JSON record with --file.
Flags override the values read from the file.`,
	Args: cobra.NoArgs,
	RunE: runSuppliersCreate,
}

var suppliersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a supplier",
	Long:  `Change a supplier. Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppliersUpdate,
}

var suppliersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a supplier",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppliersDelete,
}

var (
	supplierInput supplierFlags
	supplierFile  string
)

type supplierFlags struct {
	name, taxID, phone, mobile, contact, website, terms, currency, notes string
}

func (f *supplierFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Supplier name")
	fs.StringVar(&f.taxID, "tax-id", "", "CUIT")
	fs.StringVar(&f.phone, "phone", "", "Landline")
	fs.StringVar(&f.mobile, "mobile", "", "Mobile phone")
	fs.StringVar(&f.contact, "contact", "", "Sales contact")
	fs.StringVar(&f.website, "website", "", "Website")
	fs.StringVar(&f.terms, "terms", "", "Payment terms")
	fs.StringVar(&f.currency, "currency", "", "Price list currency")
	fs.StringVar(&f.notes, "notes", "", "Notes")
}

func (f *supplierFlags) apply(cmd *cobra.Command, s domain.SupplierDetail) domain.SupplierDetail {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("name", &s.Name, f.name)
	set("tax-id", &s.TaxID, f.taxID)
	set("phone", &s.Phone, f.phone)
	set("mobile", &s.Mobile, f.mobile)
	set("contact", &s.SalesContact1, f.contact)
	set("website", &s.Website, f.website)
	set("terms", &s.PaymentTerms, f.terms)
	set("currency", &s.Currency, f.currency)
	set("notes", &s.Notes, f.notes)
	return s
}

func init() {
	supplierInput.bind(suppliersCreateCmd)
	suppliersCreateCmd.Flags().StringVarP(&supplierFile, "file", "f", "", "Read the supplier from a JSON file")
	supplierInput.bind(suppliersUpdateCmd)

	suppliersCmd.AddCommand(suppliersListCmd)
	suppliersCmd.AddCommand(suppliersGetCmd)
	suppliersCmd.AddCommand(suppliersCreateCmd)
	suppliersCmd.AddCommand(suppliersUpdateCmd)
	suppliersCmd.AddCommand(suppliersDeleteCmd)
	rootCmd.AddCommand(suppliersCmd)
}

func requireSuppliers() error {
	if supplierCommands == nil {
		return errors.New("supplier service not configured")
	}
	return nil
}

func runSuppliersList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	res, err := catalogService.Suppliers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list suppliers: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if len(res.Data) == 0 {
		cmd.Println("No suppliers.")
		return nil
	}
	rows := make([][]string, 0, len(res.Data))
	for _, s := range res.Data {
		rows = append(rows, []string{formatID(s.ID), s.Name, s.Contact})
	}
	printTable(cmd, []string{"ID", "NAME", "CONTACT"}, rows)
	return nil
}

func runSuppliersGet(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := catalogService.Supplier(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get supplier: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	s := res.Data
	cmd.Printf("ID:       %s\n", formatID(s.ID))
	cmd.Printf("Name:     %s\n", s.Name)
	cmd.Printf("CUIT:     %s\n", s.TaxID)
	cmd.Printf("Phone:    %s\n", s.Phone)
	cmd.Printf("Mobile:   %s\n", s.Mobile)
	cmd.Printf("Contact:  %s\n", s.SalesContact1)
	cmd.Printf("Terms:    %s\n", s.PaymentTerms)
	cmd.Printf("Currency: %s\n", s.Currency)
	if s.Notes != "" {
		cmd.Printf("Notes:    %s\n", s.Notes)
	}
	for _, le := range s.LegalEntities {
		cmd.Printf("Entity:   %s (%d bank accounts)\n", le.Name, len(le.BankAccounts))
	}
	return nil
}

func runSuppliersCreate(cmd *cobra.Command, _ []string) error {
	if err := requireSuppliers(); err != nil {
		return err
	}
	var in domain.SupplierDetail
	if supplierFile != "" {
		data, err := os.ReadFile(supplierFile)
		if err != nil {
			return fmt.Errorf("failed to read supplier file: %w", err)
		}
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("%w: supplier file: %v", domain.ErrInvalidInput, err)
		}
	}
	in = supplierInput.apply(cmd, in)

	res, err := supplierCommands.Create(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	printQueued(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	cmd.Printf("Created supplier %s (%s)\n", formatID(res.Data.ID), res.Data.Name)
	return nil
}

func runSuppliersUpdate(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	if err := requireSuppliers(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	existing, err := catalogService.Supplier(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load supplier: %w", err)
	}
	res, err := supplierCommands.Update(cmd.Context(), id, supplierInput.apply(cmd, existing.Data))
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Updated supplier %s\n", formatID(id))
	return nil
}

func runSuppliersDelete(cmd *cobra.Command, args []string) error {
	if err := requireSuppliers(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	res, err := supplierCommands.Delete(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	printQueued(cmd, res)
	cmd.Printf("Deleted supplier %s\n", formatID(id))
	return nil
}
