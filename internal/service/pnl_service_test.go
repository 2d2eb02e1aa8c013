package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/testutil"
)

var ledgerBase = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func pnlFloatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestPnLService_RealizedForPortfolio tests the portfolio-wide realized P&L
// calculation against a ledger stored in the database.
//
// WHY: This is the application's core number. The service must replay the
// stored ledger through the FIFO lot queue and produce the same figures as
// the processor does in isolation, with totals, formatting, and warnings
// attached.
func TestPnLService_RealizedForPortfolio(t *testing.T) {
	t.Run("returns reference figures for a multi-lot history", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Reference")
		asset := testutil.NewAsset().WithCoingeckoID("bitcoin").WithSymbol("BTC").Build(t, db)
		link := testutil.NewPortfolioAsset(portfolio.ID, asset.ID).Build(t, db)

		// 2 @ 10000, 1 @ 12000, sell 1.5 @ 15000, 0.5 @ 11000, sell 1.5 @ 18000
		testutil.NewTransaction(link.ID).Buy().WithQuantity(2).WithUnitPrice(10000).WithExecutedAt(ledgerBase).Build(t, db)
		testutil.NewTransaction(link.ID).Buy().WithQuantity(1).WithUnitPrice(12000).WithExecutedAt(ledgerBase.Add(10 * time.Minute)).Build(t, db)
		testutil.NewTransaction(link.ID).Sell().WithQuantity(1.5).WithUnitPrice(15000).WithExecutedAt(ledgerBase.Add(20 * time.Minute)).Build(t, db)
		testutil.NewTransaction(link.ID).Buy().WithQuantity(0.5).WithUnitPrice(11000).WithExecutedAt(ledgerBase.Add(30 * time.Minute)).Build(t, db)
		testutil.NewTransaction(link.ID).Sell().WithQuantity(1.5).WithUnitPrice(18000).WithExecutedAt(ledgerBase.Add(40 * time.Minute)).Build(t, db)

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "usd")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}

		if !pnlFloatEquals(result.TotalRealizedPnL, 17500) {
			t.Errorf("Expected total realized PnL 17500, got %v", result.TotalRealizedPnL)
		}
		if !pnlFloatEquals(result.TotalRemainingBasis, 5500) {
			t.Errorf("Expected total remaining basis 5500, got %v", result.TotalRemainingBasis)
		}
		if result.TotalProcessedSells != 2 {
			t.Errorf("Expected 2 processed sells, got %d", result.TotalProcessedSells)
		}
		if result.FormattedRealizedPnL != "$17,500.00" {
			t.Errorf("Expected formatted PnL $17,500.00, got %q", result.FormattedRealizedPnL)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("Expected no warnings, got %v", result.Warnings)
		}

		if len(result.Assets) != 1 {
			t.Fatalf("Expected 1 asset result, got %d", len(result.Assets))
		}
		assetResult := result.Assets[0]
		if assetResult.AssetID != asset.ID {
			t.Errorf("Expected asset ID %s, got %s", asset.ID, assetResult.AssetID)
		}
		if assetResult.CoingeckoID != "bitcoin" {
			t.Errorf("Expected coingecko ID bitcoin, got %s", assetResult.CoingeckoID)
		}
		if len(assetResult.RemainingLots) != 1 {
			t.Fatalf("Expected 1 remaining lot, got %d", len(assetResult.RemainingLots))
		}
		if !pnlFloatEquals(assetResult.RemainingLots[0].Quantity, 0.5) || !pnlFloatEquals(assetResult.RemainingLots[0].UnitCost, 11000) {
			t.Errorf("Expected remaining lot 0.5 @ 11000, got %v @ %v",
				assetResult.RemainingLots[0].Quantity, assetResult.RemainingLots[0].UnitCost)
		}
	})

	t.Run("returns zero result for portfolio without transactions", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Empty")

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "usd")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}
		if len(result.Assets) != 0 {
			t.Errorf("Expected no asset results, got %d", len(result.Assets))
		}
		if result.TotalRealizedPnL != 0 {
			t.Errorf("Expected zero realized PnL, got %v", result.TotalRealizedPnL)
		}
		if result.FormattedRealizedPnL != "$0.00" {
			t.Errorf("Expected formatted PnL $0.00, got %q", result.FormattedRealizedPnL)
		}
	})

	t.Run("defaults empty currency to usd", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Defaults")

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}
		if result.Currency != "usd" {
			t.Errorf("Expected currency usd, got %s", result.Currency)
		}
	})

	t.Run("returns not found for unknown portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		// Execute
		_, err := svc.RealizedForPortfolio(context.Background(), testutil.MakeID(), "usd")

		// Assert
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})

	t.Run("rejects unsupported reporting currency", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "Currencies")

		// Execute
		_, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "jpy")

		// Assert
		if !errors.Is(err, apperrors.ErrUnsupportedCurrency) {
			t.Errorf("Expected ErrUnsupportedCurrency, got %v", err)
		}
	})

	t.Run("reports oversell as warning without failing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Oversold")
		asset := testutil.CreateAsset(t, db, "dogecoin")
		link := testutil.NewPortfolioAsset(portfolio.ID, asset.ID).Build(t, db)

		testutil.NewTransaction(link.ID).Buy().WithQuantity(2).WithUnitPrice(100).WithExecutedAt(ledgerBase).Build(t, db)
		testutil.NewTransaction(link.ID).Sell().WithQuantity(3).WithUnitPrice(150).WithExecutedAt(ledgerBase.Add(time.Hour)).Build(t, db)

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "usd")

		// Assert: only the matched 2 units realize PnL, the excess is dropped
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}
		if !pnlFloatEquals(result.TotalRealizedPnL, 100) {
			t.Errorf("Expected realized PnL 100, got %v", result.TotalRealizedPnL)
		}
		if len(result.Warnings) != 1 {
			t.Fatalf("Expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
		}
		if result.Warnings[0].Code != "oversell" {
			t.Errorf("Expected oversell warning, got %s", result.Warnings[0].Code)
		}
		if result.Warnings[0].CoingeckoID != "dogecoin" {
			t.Errorf("Expected warning for dogecoin, got %s", result.Warnings[0].CoingeckoID)
		}
	})

	t.Run("reports currency mismatch between lot and reporting currency", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Mixed")
		asset := testutil.CreateAsset(t, db, "ethereum")
		link := testutil.NewPortfolioAsset(portfolio.ID, asset.ID).Build(t, db)

		testutil.NewTransaction(link.ID).Buy().WithQuantity(1).WithUnitPrice(2000).WithCurrency("eur").WithExecutedAt(ledgerBase).Build(t, db)

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "usd")

		// Assert: the eur lot is carried at face value with a warning attached
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}
		if !pnlFloatEquals(result.TotalRemainingBasis, 2000) {
			t.Errorf("Expected remaining basis 2000, got %v", result.TotalRemainingBasis)
		}
		if len(result.Warnings) != 1 {
			t.Fatalf("Expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
		}
		if result.Warnings[0].Code != "currency_mismatch" {
			t.Errorf("Expected currency_mismatch warning, got %s", result.Warnings[0].Code)
		}
	})

	t.Run("returns assets sorted by symbol", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Sorted")
		zrx := testutil.NewAsset().WithCoingeckoID("0x").WithSymbol("ZRX").Build(t, db)
		ada := testutil.NewAsset().WithCoingeckoID("cardano").WithSymbol("ADA").Build(t, db)
		zrxLink := testutil.NewPortfolioAsset(portfolio.ID, zrx.ID).Build(t, db)
		adaLink := testutil.NewPortfolioAsset(portfolio.ID, ada.ID).Build(t, db)

		testutil.NewTransaction(zrxLink.ID).Buy().WithExecutedAt(ledgerBase).Build(t, db)
		testutil.NewTransaction(adaLink.ID).Buy().WithExecutedAt(ledgerBase).Build(t, db)

		// Execute
		result, err := svc.RealizedForPortfolio(context.Background(), portfolio.ID, "usd")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForPortfolio() returned unexpected error: %v", err)
		}
		if len(result.Assets) != 2 {
			t.Fatalf("Expected 2 asset results, got %d", len(result.Assets))
		}
		if result.Assets[0].Symbol != "ADA" || result.Assets[1].Symbol != "ZRX" {
			t.Errorf("Expected assets sorted ADA, ZRX, got %s, %s",
				result.Assets[0].Symbol, result.Assets[1].Symbol)
		}
	})
}

// TestPnLService_RealizedForAsset tests the single-asset realized P&L
// calculation.
//
// WHY: The per-asset endpoint must scope the replay to one asset of the
// portfolio and treat an untraded asset as a zero position rather than an
// error.
func TestPnLService_RealizedForAsset(t *testing.T) {
	t.Run("returns figures for the requested asset only", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Scoped")
		btc := testutil.NewAsset().WithCoingeckoID("bitcoin").WithSymbol("BTC").Build(t, db)
		eth := testutil.NewAsset().WithCoingeckoID("ethereum").WithSymbol("ETH").Build(t, db)
		btcLink := testutil.NewPortfolioAsset(portfolio.ID, btc.ID).Build(t, db)
		ethLink := testutil.NewPortfolioAsset(portfolio.ID, eth.ID).Build(t, db)

		testutil.NewTransaction(btcLink.ID).Buy().WithQuantity(1).WithUnitPrice(10000).WithExecutedAt(ledgerBase).Build(t, db)
		testutil.NewTransaction(btcLink.ID).Sell().WithQuantity(1).WithUnitPrice(15000).WithExecutedAt(ledgerBase.Add(time.Hour)).Build(t, db)
		testutil.NewTransaction(ethLink.ID).Buy().WithQuantity(10).WithUnitPrice(2000).WithExecutedAt(ledgerBase).Build(t, db)

		// Execute
		detail, err := svc.RealizedForAsset(context.Background(), portfolio.ID, btc.ID, "usd")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForAsset() returned unexpected error: %v", err)
		}
		if detail.Symbol != "BTC" {
			t.Errorf("Expected symbol BTC, got %s", detail.Symbol)
		}
		if !pnlFloatEquals(detail.RealizedPnL, 5000) {
			t.Errorf("Expected realized PnL 5000, got %v", detail.RealizedPnL)
		}
		if detail.ProcessedSellCount != 1 {
			t.Errorf("Expected 1 processed sell, got %d", detail.ProcessedSellCount)
		}
		if detail.PortfolioID != portfolio.ID {
			t.Errorf("Expected portfolio ID %s, got %s", portfolio.ID, detail.PortfolioID)
		}
	})

	t.Run("returns zero result for asset without transactions", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)

		portfolio := testutil.CreatePortfolio(t, db, "Untraded")
		asset := testutil.CreateAsset(t, db, "litecoin")
		testutil.NewPortfolioAsset(portfolio.ID, asset.ID).Build(t, db)

		// Execute
		detail, err := svc.RealizedForAsset(context.Background(), portfolio.ID, asset.ID, "usd")

		// Assert
		if err != nil {
			t.Fatalf("RealizedForAsset() returned unexpected error: %v", err)
		}
		if detail.RealizedPnL != 0 {
			t.Errorf("Expected zero realized PnL, got %v", detail.RealizedPnL)
		}
		if len(detail.RemainingLots) != 0 {
			t.Errorf("Expected no remaining lots, got %d", len(detail.RemainingLots))
		}
	})

	t.Run("returns not found for unknown asset", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)
		portfolio := testutil.CreatePortfolio(t, db, "NoAsset")

		// Execute
		_, err := svc.RealizedForAsset(context.Background(), portfolio.ID, testutil.MakeID(), "usd")

		// Assert
		if !errors.Is(err, apperrors.ErrAssetNotFound) {
			t.Errorf("Expected ErrAssetNotFound, got %v", err)
		}
	})

	t.Run("returns not found for unknown portfolio", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPnLService(t, db)
		asset := testutil.CreateAsset(t, db, "bitcoin")

		// Execute
		_, err := svc.RealizedForAsset(context.Background(), testutil.MakeID(), asset.ID, "usd")

		// Assert
		if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})
}
