package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/testutil"
)

func TestMarketDataHandler_Markets(t *testing.T) {
	setupHandler := func(t *testing.T) (*MarketDataHandler, *testutil.MockMarketClient) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)
		return NewMarketDataHandler(svc), mock
	}

	t.Run("returns the provider listing", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/market-data/markets", nil)
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []coingecko.MarketCoin
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if len(response) != 1 {
			t.Fatalf("Expected 1 coin, got %d", len(response))
		}
		if response[0].ID != "bitcoin" {
			t.Errorf("Expected coin bitcoin, got %s", response[0].ID)
		}
		if response[0].CurrentPrice == nil || *response[0].CurrentPrice != 50000 {
			t.Errorf("Expected current price 50000, got %v", response[0].CurrentPrice)
		}
	})

	t.Run("returns 400 for a non-numeric per_page", func(t *testing.T) {
		handler, mock := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet,
			"/api/market-data/markets", map[string]string{"per_page": "lots"})
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if mock.MarketsCalls != 0 {
			t.Errorf("Expected no provider call, got %d", mock.MarketsCalls)
		}
	})

	t.Run("returns 400 for an unsupported vs_currency", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet,
			"/api/market-data/markets", map[string]string{"vs_currency": "jpy"})
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 when per_page exceeds the provider limit", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet,
			"/api/market-data/markets", map[string]string{"per_page": "500"})
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("passes the provider status straight through", func(t *testing.T) {
		handler, mock := setupHandler(t)
		mock.WithError(&coingecko.StatusError{
			StatusCode: http.StatusTooManyRequests,
			Endpoint:   "/coins/markets",
			Body:       "Throttled",
		})

		req := httptest.NewRequest(http.MethodGet, "/api/market-data/markets", nil)
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusTooManyRequests {
			t.Errorf("Expected 429, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "Throttled") {
			t.Errorf("Expected provider error text in response, got %s", w.Body.String())
		}
	})

	t.Run("returns 408 when the provider times out", func(t *testing.T) {
		handler, mock := setupHandler(t)
		mock.WithError(context.DeadlineExceeded)

		req := httptest.NewRequest(http.MethodGet, "/api/market-data/markets", nil)
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusRequestTimeout {
			t.Errorf("Expected 408, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 503 when the provider is unreachable", func(t *testing.T) {
		handler, mock := setupHandler(t)
		mock.WithError(&url.Error{
			Op:  "Get",
			URL: "https://api.coingecko.com/api/v3/coins/markets",
			Err: errors.New("connection refused"),
		})

		req := httptest.NewRequest(http.MethodGet, "/api/market-data/markets", nil)
		w := httptest.NewRecorder()

		handler.Markets(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestMarketDataHandler_History(t *testing.T) {
	setupHandler := func(t *testing.T) (*MarketDataHandler, *testutil.MockMarketClient) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)
		return NewMarketDataHandler(svc), mock
	}

	t.Run("returns series and per-coin errors together", func(t *testing.T) {
		handler, mock := setupHandler(t)
		mock.WithErrorForCoin("unknowncoin", errors.New("coin not found"))

		body, _ := json.Marshal(map[string]interface{}{
			"coin_ids":    []string{"bitcoin", "unknowncoin"},
			"vs_currency": "usd",
			"days":        30,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/market-data/history", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.History(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.BatchHistory
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		series, ok := response.Data["bitcoin"]
		if !ok {
			t.Fatal("Expected a series for bitcoin")
		}
		if len(series.Prices) != 5 {
			t.Errorf("Expected 5 price points, got %d", len(series.Prices))
		}
		if !strings.Contains(response.Errors["unknowncoin"], "coin not found") {
			t.Errorf("Expected per-coin error for unknowncoin, got %q", response.Errors["unknowncoin"])
		}
		if mock.ChartDays["bitcoin"] != 30 {
			t.Errorf("Expected requested window of 30 days, got %d", mock.ChartDays["bitcoin"])
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/market-data/history",
			bytes.NewReader([]byte("invalid json")))
		w := httptest.NewRecorder()

		handler.History(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 when no coins are requested", func(t *testing.T) {
		handler, mock := setupHandler(t)

		body, _ := json.Marshal(map[string]interface{}{
			"coin_ids":    []string{},
			"vs_currency": "usd",
			"days":        30,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/market-data/history", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.History(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if mock.ChartCalls != 0 {
			t.Errorf("Expected no provider call, got %d", mock.ChartCalls)
		}
	})

	t.Run("returns 400 for an out-of-range day window", func(t *testing.T) {
		handler, _ := setupHandler(t)

		body, _ := json.Marshal(map[string]interface{}{
			"coin_ids":    []string{"bitcoin"},
			"vs_currency": "usd",
			"days":        0,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/market-data/history", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.History(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestMarketDataHandler_Refresh(t *testing.T) {
	setupHandler := func(t *testing.T) (*MarketDataHandler, *testutil.MockMarketClient, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockMarketClient()
		svc := testutil.NewTestMarketDataService(t, db, mock)
		return NewMarketDataHandler(svc), mock, db
	}

	t.Run("refreshes all tracked assets", func(t *testing.T) {
		handler, _, db := setupHandler(t)

		testutil.CreateAsset(t, db, "bitcoin")

		req := httptest.NewRequest(http.MethodPost, "/api/market-data/refresh", nil)
		w := httptest.NewRecorder()

		handler.Refresh(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.PriceRefreshResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if !response.Success {
			t.Error("Expected success, got failure")
		}
		if response.TotalUpdated != 1 {
			t.Fatalf("Expected 1 updated asset, got %d", response.TotalUpdated)
		}
		if response.UpdatedAssets[0].CoingeckoID != "bitcoin" {
			t.Errorf("Expected bitcoin refreshed, got %s", response.UpdatedAssets[0].CoingeckoID)
		}
		if response.UpdatedAssets[0].PricesAdded != 5 {
			t.Errorf("Expected 5 prices added, got %d", response.UpdatedAssets[0].PricesAdded)
		}

		testutil.AssertRowCount(t, db, "asset_price", 5)
	})

	t.Run("reports provider failures per asset", func(t *testing.T) {
		handler, mock, db := setupHandler(t)
		mock.WithError(errors.New("rate limited"))

		testutil.CreateAsset(t, db, "bitcoin")

		req := httptest.NewRequest(http.MethodPost, "/api/market-data/refresh", nil)
		w := httptest.NewRecorder()

		handler.Refresh(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.PriceRefreshResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Success {
			t.Error("Expected failure when nothing was refreshed")
		}
		if response.TotalErrors != 1 {
			t.Fatalf("Expected 1 error, got %d", response.TotalErrors)
		}
		if !strings.Contains(response.Errors[0].Error, "rate limited") {
			t.Errorf("Expected provider error text, got %q", response.Errors[0].Error)
		}

		testutil.AssertRowCount(t, db, "asset_price", 0)
	})

	t.Run("returns 500 when the catalogue cannot be read", func(t *testing.T) {
		handler, _, db := setupHandler(t)
		db.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/market-data/refresh", nil)
		w := httptest.NewRecorder()

		handler.Refresh(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d: %s", w.Code, w.Body.String())
		}
	})
}
