// Package cli implements the stockline command line, a driving adapter over
// the core services.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/stockline/internal/core/ports/driving"
	"github.com/custodia-labs/stockline/internal/logger"
)

var version = "dev"

// Options are the global flags passed to the services factory.
type Options struct {
	DataDir string
	Offline bool
	Verbose bool
}

// Services holds the driving ports the commands call.
type Services struct {
	Settings     driving.SettingsService
	Auth         driving.AuthService
	Catalog      driving.CatalogService
	Products     driving.ProductCommands
	Suppliers    driving.SupplierCommands
	Categories   driving.CategoryCommands
	Sales        driving.SaleCommands
	Rates        driving.ExchangeRateCommands
	Queue        driving.MutationQueue
	Sync         driving.SyncStatus
	Connectivity driving.Connectivity
	Scheduler    driving.Scheduler

	// Open restores durable state before a client command runs.
	Open func(ctx context.Context) error
	// Close persists state after it.
	Close func(ctx context.Context) error
	// Release frees the underlying adapters once the command has finished,
	// whether or not the client was opened.
	Release func() error
}

// ServicesFactory builds services once flags are parsed.
type ServicesFactory func(opts Options) (*Services, error)

var (
	opts       Options
	jsonOutput bool

	servicesFactory ServicesFactory
	current         *Services
	opened          bool

	settingsService  driving.SettingsService
	authService      driving.AuthService
	catalogService   driving.CatalogService
	productCommands  driving.ProductCommands
	supplierCommands driving.SupplierCommands
	categoryCommands driving.CategoryCommands
	saleCommands     driving.SaleCommands
	rateCommands     driving.ExchangeRateCommands
	mutationQueue    driving.MutationQueue
	syncStatus       driving.SyncStatus
	connectivity     driving.Connectivity
	scheduler        driving.Scheduler
)

// annotationClient marks commands that need the cache restored first.
const annotationClient = "stockline/client"

var clientAnnotation = map[string]string{annotationClient: "true"}

var rootCmd = &cobra.Command{
	Use:   "stockline",
	Short: "Inventory and sales console with offline sync",
	Long: `Stockline manages products, suppliers, categories and sales against the
inventory server.

Reads are served from a local cache when the server cannot be reached, and
writes made while offline are queued and sent when the connection returns.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: closeServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "Work from the local cache and queue every write")
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "Directory for the cache database (default ~/.stockline)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the root command. State opened by the command is persisted
// even when the command fails, and the services are released afterwards.
func Execute() error {
	err := rootCmd.Execute()
	err = errors.Join(err, closeServices(rootCmd, nil))
	if current != nil && current.Release != nil {
		err = errors.Join(err, current.Release())
	}
	return err
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServicesFactory registers the builder used on the first command run.
func SetServicesFactory(f ServicesFactory) {
	servicesFactory = f
}

// SetServices installs services directly.
func SetServices(s *Services) {
	current = s
	opened = false
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	authService = s.Auth
	catalogService = s.Catalog
	productCommands = s.Products
	supplierCommands = s.Suppliers
	categoryCommands = s.Categories
	saleCommands = s.Sales
	rateCommands = s.Rates
	mutationQueue = s.Queue
	syncStatus = s.Sync
	connectivity = s.Connectivity
	scheduler = s.Scheduler
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)
	if cmd == versionCmd {
		return nil
	}
	if current == nil && servicesFactory != nil {
		s, err := servicesFactory(opts)
		if err != nil {
			return err
		}
		SetServices(s)
	}
	if !needsClient(cmd) || current == nil || current.Open == nil || opened {
		return nil
	}
	if err := current.Open(cmd.Context()); err != nil {
		return err
	}
	opened = true
	return nil
}

func closeServices(cmd *cobra.Command, _ []string) error {
	if !opened || current == nil || current.Close == nil {
		return nil
	}
	opened = false
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return current.Close(ctx)
}

func needsClient(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationClient] == "true" {
			return true
		}
	}
	return false
}
