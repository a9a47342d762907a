package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/api"
	"github.com/mcoot/powerup-ledger/internal/config"
	"github.com/mcoot/powerup-ledger/internal/factory"
	"github.com/mcoot/powerup-ledger/internal/telemetry"
	"github.com/mcoot/powerup-ledger/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(ctx, cfg.Factory(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// API first; the web pages take every path it leaves unmatched
	router := mux.NewRouter()
	api.RegisterRoutes(router, api.RouterConfig{
		Logger:        logger,
		Clock:         app.Clock,
		AuthService:   app.AuthService,
		PlayerService: app.PlayerService,
		Ledger:        app.Ledger,
		Orchestrator:  app.Orchestrator,
		Catalog:       app.Catalog,
		HubManager:    app.HubManager,
	})
	web.RegisterRoutes(router, web.RouterConfig{
		Logger:        logger,
		Clock:         app.Clock,
		AuthService:   app.AuthService,
		PlayerService: app.PlayerService,
		Catalog:       app.Catalog,
	})

	server := api.NewServer(router, cfg.Server(), logger)

	go runJanitor(ctx, app, cfg.HubCleanupInterval)

	logger.Info("server starting",
		slog.String("addr", cfg.Server().Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("treasury", cfg.TreasuryAccount),
	)

	// Run blocks until a shutdown signal cancels ctx
	exitCode := 0
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		exitCode = 1
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := shutdownTracing(context.Background()); err != nil {
		logger.Error("failed to flush traces", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

// runJanitor drops idle event hubs and expired sessions until ctx ends
func runJanitor(ctx context.Context, app *factory.App, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.HubManager.CleanupEmptyHubs()
			app.AuthService.CleanExpiredSessions()
		}
	}
}
