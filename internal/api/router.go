package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/handlers"
	custommiddleware "github.com/jblomberg5r/CryptoValhalla/internal/api/middleware"
	"github.com/jblomberg5r/CryptoValhalla/internal/config"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
)

// Services bundles the service layer dependencies of the HTTP API.
type Services struct {
	Portfolio   *service.PortfolioService
	Asset       *service.AssetService
	Transaction *service.TransactionService
	PnL         *service.PnLService
	MarketData  *service.MarketDataService
	Settings    *service.SettingsService
	System      *service.SystemService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/portfolios", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.PnL)
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.GetPortfolio)
				r.Put("/", portfolioHandler.UpdatePortfolio)
				r.Delete("/", portfolioHandler.DeletePortfolio)
				r.Post("/archive", portfolioHandler.ToggleArchive)
				r.Get("/summary", portfolioHandler.Summary)
				r.Get("/pnl", portfolioHandler.RealizedPnL)
				r.Get("/assets", portfolioHandler.PortfolioAssets)
				r.Post("/assets", portfolioHandler.LinkAsset)
				r.Delete("/assets/{assetUuid}", portfolioHandler.UnlinkAsset)
			})
		})

		r.Route("/assets", func(r chi.Router) {
			assetHandler := handlers.NewAssetHandler(svc.Asset, svc.PnL)
			r.Get("/", assetHandler.Assets)
			r.Post("/", assetHandler.CreateAsset)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", assetHandler.GetAsset)
				r.Put("/", assetHandler.UpdateAsset)
				r.Delete("/", assetHandler.DeleteAsset)
				r.Get("/pnl", assetHandler.AssetRealizedPnL)
				r.Get("/prices", assetHandler.AssetPrices)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
			r.Get("/", transactionHandler.Transactions)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Post("/import", transactionHandler.ImportTransactions)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/market-data", func(r chi.Router) {
			marketDataHandler := handlers.NewMarketDataHandler(svc.MarketData)
			r.Get("/markets", marketDataHandler.Markets)
			r.Post("/history", marketDataHandler.History)
			r.Post("/refresh", marketDataHandler.Refresh)
		})

		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System, svc.Settings)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
			r.Get("/settings/coingecko-key", systemHandler.GetCoingeckoKey)
			r.Post("/settings/coingecko-key", systemHandler.SetCoingeckoKey)
		})
	})

	return r
}
