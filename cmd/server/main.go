package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jblomberg5r/CryptoValhalla/internal/api"
	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/config"
	"github.com/jblomberg5r/CryptoValhalla/internal/database"
	"github.com/jblomberg5r/CryptoValhalla/internal/logging"
	"github.com/jblomberg5r/CryptoValhalla/internal/registry"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
	"github.com/jblomberg5r/CryptoValhalla/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync failure at exit is harmless
	zap.ReplaceGlobals(logger)

	logger.Info("starting server", zap.String("version", version.Version))

	// Open database connection and bring the schema up to date
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Info("connected to database", zap.String("path", cfg.Database.Path))

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	portfolioAssetRepo := repository.NewPortfolioAssetRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Market data client
	market := coingecko.NewMarketClient(cfg.CoinGecko, logger)

	// Create services
	systemService := service.NewSystemService(db, cfg.Fernet.Key != "")
	transactionService := service.NewTransactionService(transactionRepo, portfolioAssetRepo, assetRepo)
	pnlService := service.NewPnLService(portfolioRepo, assetRepo, transactionService, logger)
	portfolioService := service.NewPortfolioService(portfolioRepo, portfolioAssetRepo, assetRepo, pnlService)
	assetService := service.NewAssetService(assetRepo, logger)
	marketDataService := service.NewMarketDataService(market, assetRepo, transactionRepo, logger)

	settingsService, err := service.NewSettingsService(settingRepo, market, cfg.Fernet, logger)
	if err != nil {
		return err
	}
	if err := settingsService.LoadStoredAPIKey(context.Background()); err != nil {
		logger.Warn("could not load stored CoinGecko API key", zap.Error(err))
	}

	// Seed the asset catalogue
	seeds, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return err
	}
	if err := assetService.Seed(context.Background(), seeds); err != nil {
		return fmt.Errorf("failed to seed asset catalogue: %w", err)
	}

	// Scheduled daily price refresh
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Scheduler.PriceRefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.PriceRefreshTimeout)
		defer cancel()

		if _, err := marketDataService.RefreshDailyPrices(ctx); err != nil {
			logger.Error("scheduled price refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid price refresh schedule %q: %w", cfg.Scheduler.PriceRefreshSpec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(api.Services{
		Portfolio:   portfolioService,
		Asset:       assetService,
		Transaction: transactionService,
		PnL:         pnlService,
		MarketData:  marketDataService,
		Settings:    settingsService,
		System:      systemService,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
