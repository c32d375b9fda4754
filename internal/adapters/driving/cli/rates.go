package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:         "rates",
	Short:       "Show USD exchange rates",
	Annotations: clientAnnotation,
	Args:        cobra.NoArgs,
	RunE:        runRatesShow,
}

var ratesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the server to fetch new rates",
	Long: `Ask the server to fetch new USD quotes. Product prices that depend on
the dollar are recomputed by the server and refetched.`,
	Args: cobra.NoArgs,
	RunE: runRatesRefresh,
}

func init() {
	ratesCmd.AddCommand(ratesRefreshCmd)
	rootCmd.AddCommand(ratesCmd)
}

func runRatesShow(cmd *cobra.Command, _ []string) error {
	if err := requireCatalog(); err != nil {
		return err
	}
	res, err := catalogService.ExchangeRates(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get exchange rates: %w", err)
	}
	printFreshness(cmd, res)
	if jsonOutput {
		return printJSON(cmd, res.Data)
	}
	if len(res.Data) == 0 {
		cmd.Println("No exchange rates.")
		return nil
	}
	rows := make([][]string, 0, len(res.Data))
	for _, r := range res.Data {
		rows = append(rows, []string{r.Name, formatMoney(r.Price)})
	}
	printTable(cmd, []string{"RATE", "PRICE"}, rows)
	return nil
}

func runRatesRefresh(cmd *cobra.Command, _ []string) error {
	if rateCommands == nil {
		return errors.New("exchange rate service not configured")
	}
	res, err := rateCommands.ForceUpdate(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to refresh exchange rates: %w", err)
	}
	printQueued(cmd, res)
	if res.Data != "" {
		cmd.Println(res.Data)
	} else if !res.Queued {
		cmd.Println("Exchange rates refreshed")
	}
	return nil
}
