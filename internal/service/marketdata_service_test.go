package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/testutil"
)

// TestMarketDataService_Markets tests the cached market listing proxy.
//
// WHY: The dashboard polls this endpoint. Identical queries within the cache
// interval must be answered without touching the provider, or polling alone
// would exhaust the rate limit.
func TestMarketDataService_Markets(t *testing.T) {
	t.Run("serves repeated queries from cache", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		first, err := svc.Markets(context.Background(), "usd", []string{"bitcoin"}, 50, 1)
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		second, err := svc.Markets(context.Background(), "usd", []string{"bitcoin"}, 50, 1)

		// Assert
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		if mock.MarketsCalls != 1 {
			t.Errorf("Expected 1 provider call, got %d", mock.MarketsCalls)
		}
		if len(first) != len(second) {
			t.Errorf("Expected identical results, got %d and %d coins", len(first), len(second))
		}
	})

	t.Run("treats equivalent id lists as the same query", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		_, err := svc.Markets(context.Background(), "usd", []string{" Bitcoin ", "ethereum"}, 50, 1)
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		_, err = svc.Markets(context.Background(), "usd", []string{"ethereum", "bitcoin", "bitcoin"}, 50, 1)

		// Assert
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		if mock.MarketsCalls != 1 {
			t.Errorf("Expected equivalent queries to share a cache entry, got %d provider calls", mock.MarketsCalls)
		}
	})

	t.Run("fetches again for a different query", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		_, err := svc.Markets(context.Background(), "usd", nil, 50, 1)
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		_, err = svc.Markets(context.Background(), "usd", nil, 50, 2)

		// Assert
		if err != nil {
			t.Fatalf("Markets() returned unexpected error: %v", err)
		}
		if mock.MarketsCalls != 2 {
			t.Errorf("Expected 2 provider calls for distinct queries, got %d", mock.MarketsCalls)
		}
	})

	t.Run("does not cache provider errors", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().WithError(errors.New("rate limited"))
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		_, err := svc.Markets(context.Background(), "usd", nil, 50, 1)

		// Assert
		if err == nil {
			t.Fatal("Expected provider error, got nil")
		}

		mock.MockError = nil
		if _, err := svc.Markets(context.Background(), "usd", nil, 50, 1); err != nil {
			t.Errorf("Expected retry after provider recovery, got %v", err)
		}
		if mock.MarketsCalls != 2 {
			t.Errorf("Expected 2 provider calls, got %d", mock.MarketsCalls)
		}
	})
}

// TestMarketDataService_BatchMarketChart tests multi-coin history fetching.
//
// WHY: Chart screens request several coins at once. One bad coin id must not
// blank the whole screen; its error is reported next to the successful series.
func TestMarketDataService_BatchMarketChart(t *testing.T) {
	t.Run("collects per-coin errors without failing the batch", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().
			WithChartForCoin("bitcoin", testutil.CreateMockChart(3, 40000)).
			WithErrorForCoin("notacoin", errors.New("coin not found"))
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		result, err := svc.BatchMarketChart(context.Background(), request.BatchMarketChartRequest{
			CoinIDs:    []string{"bitcoin", "notacoin"},
			VsCurrency: "usd",
			Days:       3,
		})

		// Assert
		if err != nil {
			t.Fatalf("BatchMarketChart() returned unexpected error: %v", err)
		}
		if len(result.Data) != 1 {
			t.Errorf("Expected 1 successful coin, got %d", len(result.Data))
		}
		if len(result.Data["bitcoin"].Prices) != 3 {
			t.Errorf("Expected 3 price points for bitcoin, got %d", len(result.Data["bitcoin"].Prices))
		}
		if result.Errors["notacoin"] != "coin not found" {
			t.Errorf("Expected error for notacoin, got %q", result.Errors["notacoin"])
		}
	})

	t.Run("dedupes requested coin ids", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)

		// Execute
		_, err := svc.BatchMarketChart(context.Background(), request.BatchMarketChartRequest{
			CoinIDs:    []string{"bitcoin", "Bitcoin", " bitcoin "},
			VsCurrency: "usd",
			Days:       3,
		})

		// Assert
		if err != nil {
			t.Fatalf("BatchMarketChart() returned unexpected error: %v", err)
		}
		if mock.ChartCalls != 1 {
			t.Errorf("Expected 1 provider call for deduped ids, got %d", mock.ChartCalls)
		}
	})
}

// TestMarketDataService_RefreshDailyPrices tests the stored price refresh.
//
// WHY: Valuations read stored daily prices. The refresh must size its fetch
// window from what is already stored, count only genuinely new dates, and
// keep going when a single coin fails.
func TestMarketDataService_RefreshDailyPrices(t *testing.T) {
	t.Run("backfills the full default window for a fresh asset", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().WithChart(testutil.CreateMockChart(5, 40000))
		svc := testutil.NewTestMarketDataService(t, db, mock)
		testutil.CreateAsset(t, db, "bitcoin")

		// Execute
		resp, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		if !resp.Success {
			t.Error("Expected refresh to report success")
		}
		if resp.TotalUpdated != 1 {
			t.Fatalf("Expected 1 updated asset, got %d", resp.TotalUpdated)
		}
		if resp.UpdatedAssets[0].PricesAdded != 5 {
			t.Errorf("Expected 5 prices added, got %d", resp.UpdatedAssets[0].PricesAdded)
		}
		if mock.ChartDays["bitcoin"] != 365 {
			t.Errorf("Expected 365-day window for an asset with no history, got %d", mock.ChartDays["bitcoin"])
		}
		testutil.AssertRowCount(t, db, "asset_price", 5)
	})

	t.Run("caps the window for old transaction history", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().WithChart(testutil.CreateMockChart(5, 40000))
		svc := testutil.NewTestMarketDataService(t, db, mock)
		_, asset, link := testutil.CreateHolding(t, db, "bitcoin")
		testutil.NewTransaction(link.ID).
			WithExecutedAt(time.Now().UTC().AddDate(-2, 0, 0)).
			Build(t, db)

		// Execute
		_, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		if mock.ChartDays[asset.CoingeckoID] != 365 {
			t.Errorf("Expected window capped at 365 days, got %d", mock.ChartDays[asset.CoingeckoID])
		}
	})

	t.Run("shrinks the window when prices are stored", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().WithChart(testutil.CreateMockChart(3, 40000))
		svc := testutil.NewTestMarketDataService(t, db, mock)
		asset := testutil.CreateAsset(t, db, "bitcoin")

		twoDaysAgo := time.Now().UTC().AddDate(0, 0, -2).Truncate(24 * time.Hour)
		testutil.NewAssetPrice(asset.ID).WithDate(twoDaysAgo).WithPrice(39000).Build(t, db)

		// Execute
		_, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		days := mock.ChartDays["bitcoin"]
		if days < 1 || days > 5 {
			t.Errorf("Expected a window of a few days from the stored price, got %d", days)
		}
	})

	t.Run("counts only dates newer than the stored latest", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)

		today := time.Now().UTC().Truncate(24 * time.Hour)
		yesterday := today.AddDate(0, 0, -1)
		twoDaysAgo := today.AddDate(0, 0, -2)
		threeDaysAgo := today.AddDate(0, 0, -3)

		chart := testutil.CreateMockChartForDates(map[string]float64{
			threeDaysAgo.Format("2006-01-02"): 39000,
			twoDaysAgo.Format("2006-01-02"):   39500,
			yesterday.Format("2006-01-02"):    41000,
		})
		mock := testutil.NewMockMarketClient().WithChart(chart)
		svc := testutil.NewTestMarketDataService(t, db, mock)

		asset := testutil.CreateAsset(t, db, "bitcoin")
		testutil.NewAssetPrice(asset.ID).WithDate(twoDaysAgo).WithPrice(38000).Build(t, db)

		// Execute
		resp, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		if resp.UpdatedAssets[0].PricesAdded != 1 {
			t.Errorf("Expected 1 price added, got %d", resp.UpdatedAssets[0].PricesAdded)
		}

		// The stored date itself is refreshed in place, older dates are left
		// alone.
		testutil.AssertRowCount(t, db, "asset_price", 2)

		var refreshed float64
		err = db.QueryRow(
			`SELECT price FROM asset_price WHERE asset_id = ? AND date = ?`,
			asset.ID, twoDaysAgo.Format("2006-01-02"),
		).Scan(&refreshed)
		if err != nil {
			t.Fatalf("Failed to query refreshed price: %v", err)
		}
		if refreshed != 39500 {
			t.Errorf("Expected stored date refreshed to 39500, got %v", refreshed)
		}
	})

	t.Run("continues past a failing coin", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().
			WithChart(testutil.CreateMockChart(3, 1000)).
			WithErrorForCoin("brokencoin", errors.New("coin not found"))
		svc := testutil.NewTestMarketDataService(t, db, mock)
		testutil.NewAsset().WithCoingeckoID("bitcoin").WithSymbol("BTC").Build(t, db)
		testutil.NewAsset().WithCoingeckoID("brokencoin").WithSymbol("BRK").Build(t, db)

		// Execute
		resp, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		if !resp.Success {
			t.Error("Expected success with one asset refreshed")
		}
		if resp.TotalUpdated != 1 || resp.TotalErrors != 1 {
			t.Errorf("Expected 1 update and 1 error, got %d and %d", resp.TotalUpdated, resp.TotalErrors)
		}
		if resp.Errors[0].CoingeckoID != "brokencoin" {
			t.Errorf("Expected brokencoin in errors, got %s", resp.Errors[0].CoingeckoID)
		}
	})

	t.Run("reports failure when nothing could be refreshed", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient().WithError(errors.New("provider down"))
		svc := testutil.NewTestMarketDataService(t, db, mock)
		testutil.CreateAsset(t, db, "bitcoin")

		// Execute
		resp, err := svc.RefreshDailyPrices(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("RefreshDailyPrices() returned unexpected error: %v", err)
		}
		if resp.Success {
			t.Error("Expected Success false when every asset failed")
		}
		if resp.TotalErrors != 1 {
			t.Errorf("Expected 1 error, got %d", resp.TotalErrors)
		}
	})
}
