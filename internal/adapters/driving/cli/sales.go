package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

var salesCmd = &cobra.Command{
	Use:         "sales",
	Aliases:     []string{"sale"},
	Short:       "Register and browse sales",
	Annotations: clientAnnotation,
}

var salesRegisterCmd = &cobra.Command{
	Use:   "register <product-id>:<quantity>...",
	Short: "Register a sale",
	Long: `Register a sale and discount the sold units from stock.

Each argument is a product id and a quantity, e.g. 12:3. The draft id
identifies the sale across retries; registering the same draft id twice is
rejected.`,
	Example: `  stockline sales register 12:3 40:1
  stockline sales register 12:3 --draft-id 6f1c...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSalesRegister,
}

var salesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sales",
	Args:  cobra.NoArgs,
	RunE:  runSalesList,
}

var salesGetCmd = &cobra.Command{
	Use:   "get <receipt>",
	Short: "Show a sale by receipt number",
	Args:  cobra.ExactArgs(1),
	RunE:  runSalesGet,
}

var saleDraftID string

func init() {
	salesRegisterCmd.Flags().StringVar(&saleDraftID, "draft-id", "", "Draft id (default: a new UUID)")

	salesCmd.AddCommand(salesRegisterCmd)
	salesCmd.AddCommand(salesListCmd)
	salesCmd.AddCommand(salesGetCmd)
	rootCmd.AddCommand(salesCmd)
}

func parseSaleLine(s string) (domain.SaleLine, error) {
	idPart, qtyPart, ok := strings.Cut(s, ":")
	if !ok {
		qtyPart = "1"
	}
	id, err := parseID(idPart)
	if err != nil {
		return domain.SaleLine{}, err
	}
	qty, err := strconv.Atoi(qtyPart)
	if err != nil {
		return domain.SaleLine{}, fmt.Errorf("%w: invalid quantity in %q", domain.ErrInvalidInput, s)
	}
	return domain.SaleLine{ProductID: id, Quantity: qty}, nil
}

func runSalesRegister(cmd *cobra.Command, args []string) error {
	if saleCommands == nil {
		return errors.New("sale service not configured")
	}
	draft := domain.SaleDraft{DraftID: saleDraftID}
	if draft.DraftID == "" {
		draft.DraftID = uuid.NewString()
	}
	for _, a := range args {
		line, err := parseSaleLine(a)
		if err != nil {
			return err
		}
		draft.Items = append(draft.Items, line)
	}

	res, err := saleCommands.Register(cmd.Context(), draft)
	if err != nil {
		return fmt.Errorf("failed to register sale: %w", err)
	}
	printQueued(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if res.Queued {
		cmd.Printf("Sale draft %s saved\n", draft.DraftID)
		return nil
	}
	cmd.Printf("Registered sale %s, total %s\n", res.Data.ReceiptNumber, formatMoney(res.Data.Total))
	return nil
}

func runSalesList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	res, err := catalogService.Sales(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sales: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if len(res.Data) == 0 {
		cmd.Println("No sales.")
		return nil
	}
	rows := make([][]string, 0, len(res.Data))
	for _, s := range res.Data {
		rows = append(rows, []string{s.ReceiptNumber, s.Date, strconv.Itoa(len(s.Items)), formatMoney(s.Total)})
	}
	printTable(cmd, []string{"RECEIPT", "DATE", "ITEMS", "TOTAL"}, rows)
	return nil
}

func runSalesGet(cmd *cobra.Command, args []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	res, err := catalogService.Sale(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get sale: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	s := res.Data
	cmd.Printf("Receipt: %s\n", s.ReceiptNumber)
	cmd.Printf("Date:    %s\n", s.Date)
	rows := make([][]string, 0, len(s.Items))
	for _, it := range s.Items {
		rows = append(rows, []string{
			formatID(it.ProductID), it.ProductDescription, strconv.Itoa(it.Quantity), formatMoney(it.UnitPrice),
		})
	}
	printTable(cmd, []string{"PRODUCT", "DESCRIPTION", "QTY", "UNIT PRICE"}, rows)
	cmd.Printf("Total:   %s\n", formatMoney(s.Total))
	return nil
}
