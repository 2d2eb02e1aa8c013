package model

import "time"

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	IsArchived          bool      `json:"isArchived"`
	ExcludeFromOverview bool      `json:"excludeFromOverview"`
	CreatedAt           time.Time `json:"createdAt,omitempty"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
	IncludeExcluded bool
}

// PortfolioSummary represents the current state of a portfolio: valuation,
// cost basis, and gains/losses (both realized and unrealized) in the given
// reporting currency, plus the per-asset positions behind the totals.
type PortfolioSummary struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Currency           string          `json:"currency"`
	TotalValue         float64         `json:"totalValue"`         // Current market value
	TotalCostBasis     float64         `json:"totalCostBasis"`     // Cost basis of open lots
	TotalUnrealizedPnL float64         `json:"totalUnrealizedPnL"` // Value minus cost basis
	TotalRealizedPnL   float64         `json:"totalRealizedPnL"`   // Realized gain/loss from sales
	TotalPnL           float64         `json:"totalPnL"`           // Combined realized + unrealized
	FormattedValue     string          `json:"formattedValue"`     // Display string, e.g. "$12,345.67"
	Positions          []AssetPosition `json:"positions"`
	IsArchived         bool            `json:"isArchived"`
}

// AssetPosition represents one asset's slice of a portfolio summary.
type AssetPosition struct {
	AssetID       string  `json:"assetId"`
	CoingeckoID   string  `json:"coingeckoId"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`      // Units currently held (sum of open lots)
	CostBasis     float64 `json:"costBasis"`     // Cost tied up in open lots
	AverageCost   float64 `json:"averageCost"`   // CostBasis / Quantity, 0 when flat
	CurrentPrice  float64 `json:"currentPrice"`  // Latest stored price, 0 when none
	CurrentValue  float64 `json:"currentValue"`  // Quantity * CurrentPrice
	UnrealizedPnL float64 `json:"unrealizedPnL"` // CurrentValue - CostBasis
	RealizedPnL   float64 `json:"realizedPnL"`   // FIFO-realized gain/loss
	Weight        float64 `json:"weight"`        // Share of total portfolio value in percent
}
