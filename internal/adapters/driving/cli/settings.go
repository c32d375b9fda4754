package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage client settings",
	Long: `View and change the client settings stored in ~/.stockline/config.toml.

Durations take Go syntax, e.g. 5s, 2m or 24h. STOCKLINE_* environment
variables override stored values for a single run.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Example: `  stockline settings set api.base_url https://stock.example.com
  stockline settings set sync.poll_interval 10s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	defaults := settingsService.GetDefaults()

	values := make(map[string]string, len(settingsService.Keys()))
	rows := make([][]string, 0, len(settingsService.Keys()))
	for _, key := range settingsService.Keys() {
		v, _ := settings.Value(key)
		def, _ := defaults.Value(key)
		values[key] = v
		marker := ""
		if v != def {
			marker = "*"
		}
		rows = append(rows, []string{key, v, marker})
	}
	if jsonOutput {
		return printJSON(cmd, values)
	}
	printTable(cmd, []string{"KEY", "VALUE", "CHANGED"}, rows)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("%s set to %s\n", args[0], args[1])
	return nil
}
