package testutil

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
)

// MockMarketClient is a mock implementation of coingecko.Client for testing.
// It returns predefined test data instead of making actual API calls.
type MockMarketClient struct {
	// MockCoins is the listing returned by Markets
	MockCoins []coingecko.MarketCoin
	// MockChart is the series returned by MarketChart for coins without a
	// per-coin override
	MockChart coingecko.MarketChart
	// ChartByCoin overrides MockChart for specific coin IDs
	ChartByCoin map[string]coingecko.MarketChart
	// MockError is the error to return from both query methods
	MockError error
	// ErrorByCoin overrides MockError for specific coin IDs in MarketChart
	ErrorByCoin map[string]error

	// MarketsCalls tracks how many times Markets was called
	MarketsCalls int
	// ChartCalls tracks how many times MarketChart was called
	ChartCalls int
	// ChartDays records the days argument of the last MarketChart call per coin
	ChartDays map[string]int
}

// NewMockMarketClient creates a new mock market client with default test data.
// The default data includes one coin and 5 days of chart history.
func NewMockMarketClient() *MockMarketClient {
	return &MockMarketClient{
		MockCoins:   []coingecko.MarketCoin{CreateMockCoin("bitcoin", "btc", 50000)},
		MockChart:   CreateMockChart(5, 100.0),
		ChartByCoin: make(map[string]coingecko.MarketChart),
		ErrorByCoin: make(map[string]error),
		ChartDays:   make(map[string]int),
	}
}

// Markets mocks the market listing query with predefined test data.
// It returns the configured MockCoins and MockError.
func (m *MockMarketClient) Markets(_ context.Context, _ string, _ []string, _, _ int) ([]coingecko.MarketCoin, error) {
	m.MarketsCalls++
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCoins, nil
}

// MarketChart mocks the historical chart query with predefined test data.
// Per-coin overrides win over the shared MockChart and MockError.
func (m *MockMarketClient) MarketChart(_ context.Context, coinID, _ string, days int) (coingecko.MarketChart, error) {
	m.ChartCalls++
	m.ChartDays[coinID] = days

	if err, ok := m.ErrorByCoin[coinID]; ok {
		return coingecko.MarketChart{}, err
	}
	if m.MockError != nil {
		return coingecko.MarketChart{}, m.MockError
	}
	if chart, ok := m.ChartByCoin[coinID]; ok {
		return chart, nil
	}
	return m.MockChart, nil
}

// WithCoins configures the mock to return the specified market listing.
func (m *MockMarketClient) WithCoins(coins ...coingecko.MarketCoin) *MockMarketClient {
	m.MockCoins = coins
	return m
}

// WithChart configures the mock to return the specified chart for all coins.
func (m *MockMarketClient) WithChart(chart coingecko.MarketChart) *MockMarketClient {
	m.MockChart = chart
	return m
}

// WithChartForCoin configures a chart returned only for the given coin ID.
func (m *MockMarketClient) WithChartForCoin(coinID string, chart coingecko.MarketChart) *MockMarketClient {
	m.ChartByCoin[coinID] = chart
	return m
}

// WithError configures the mock to return the specified error.
func (m *MockMarketClient) WithError(err error) *MockMarketClient {
	m.MockError = err
	return m
}

// WithErrorForCoin configures an error returned only for the given coin ID.
func (m *MockMarketClient) WithErrorForCoin(coinID string, err error) *MockMarketClient {
	m.ErrorByCoin[coinID] = err
	return m
}

// CreateMockCoin creates a market listing entry with the optional numeric
// fields populated, shaped like a real /coins/markets element.
func CreateMockCoin(id, symbol string, price float64) coingecko.MarketCoin {
	marketCap := price * 1000000
	rank := 1
	change := price * 0.01
	changePct := 1.0

	return coingecko.MarketCoin{
		ID:                       id,
		Symbol:                   symbol,
		Name:                     strings.ToUpper(symbol[:1]) + symbol[1:],
		CurrentPrice:             &price,
		MarketCap:                &marketCap,
		MarketCapRank:            &rank,
		PriceChange24h:           &change,
		PriceChangePercentage24h: &changePct,
	}
}

// CreateMockChart creates a daily price series with `days` points ending
// yesterday. Timestamps are UTC midnights in milliseconds, matching the
// provider's daily granularity.
func CreateMockChart(days int, startPrice float64) coingecko.MarketChart {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	prices := make([][2]float64, days)
	for i := 0; i < days; i++ {
		date := yesterday.AddDate(0, 0, -days+i+1)
		prices[i] = [2]float64{float64(date.UnixMilli()), startPrice + float64(i)*0.5}
	}

	return coingecko.MarketChart{Prices: prices}
}

// CreateMockChartForDates creates a price series with one point per given
// date. Useful for pinning exact dates in price refresh tests.
func CreateMockChartForDates(points map[string]float64) coingecko.MarketChart {
	chart := coingecko.MarketChart{}
	for dateStr, price := range points {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		chart.Prices = append(chart.Prices, [2]float64{float64(date.UTC().UnixMilli()), price})
	}
	sort.Slice(chart.Prices, func(i, j int) bool {
		return chart.Prices[i][0] < chart.Prices[j][0]
	})
	return chart
}
