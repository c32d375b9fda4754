// Command stockline is the inventory and sales console.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/stockline/internal/adapters/driven/auth"
	"github.com/custodia-labs/stockline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/stockline/internal/adapters/driven/network"
	"github.com/custodia-labs/stockline/internal/adapters/driven/rest"
	"github.com/custodia-labs/stockline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/stockline/internal/adapters/driving/cli"
	"github.com/custodia-labs/stockline/internal/core/services"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Set by the release build.
var version = "dev"

func main() {
	// A .env file in the working directory may carry STOCKLINE_* overrides.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("ignoring .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetServicesFactory(buildServices)
	err := cli.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// buildServices wires the driven adapters into the core client.
func buildServices(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	tokens, err := auth.NewFileTokenStore("")
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	if err := tokens.Watch(); err != nil {
		logger.Debug("token file not watched: %v", err)
	}
	authService := services.NewAuthService(tokens, auth.JWTDecoder{})

	events := services.NewAuthEvents()
	events.Subscribe(func() {
		logger.Error("the server rejected the access token; run 'stockline auth login'")
	})

	gateway := rest.NewGateway(rest.GatewayConfig{
		BaseURL:   settings.APIBaseURL,
		Timeout:   settings.RequestTimeout,
		RateLimit: settings.RateLimit,
		Tokens:    auth.NewTokenSource(context.Background(), tokens),
		Notifier:  events,
	})

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		_ = tokens.Close()
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	logger.Debug("cache database at %s", store.Path())

	client := services.NewClient(services.ClientDeps{
		API:      rest.NewClient(gateway),
		Store:    store,
		Probe:    network.NewHTTPProbe(gateway.BaseURL(), network.DefaultProbeTimeout),
		Settings: settings,
		Offline:  opts.Offline,
	})

	return &cli.Services{
		Settings:     settingsService,
		Auth:         authService,
		Catalog:      client.Catalog,
		Products:     client.Products,
		Suppliers:    client.Suppliers,
		Categories:   client.Categories,
		Sales:        client.Sales,
		Rates:        client.Rates,
		Queue:        client.Queue,
		Sync:         client.Sync,
		Connectivity: client.Connectivity,
		Scheduler:    client.Scheduler,
		Open:         client.Open,
		Close:        client.Close,
		Release: func() error {
			return errors.Join(store.Close(), tokens.Close())
		},
	}, nil
}
