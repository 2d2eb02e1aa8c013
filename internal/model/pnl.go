package model

import (
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/fifo"
)

// AssetRealizedPnL is the FIFO result for one asset's transaction history.
type AssetRealizedPnL struct {
	AssetID            string     `json:"assetId"`
	CoingeckoID        string     `json:"coingeckoId"`
	Symbol             string     `json:"symbol"`
	RealizedPnL        float64    `json:"realizedPnL"`
	RemainingLots      []fifo.Lot `json:"remainingLots"`
	RemainingCostBasis float64    `json:"remainingCostBasis"`
	ProcessedSellCount int        `json:"processedSellCount"`
}

// PortfolioRealizedPnL aggregates per-asset FIFO results for a portfolio.
// Totals are plain sums across assets; warnings document the simplifications
// applied while computing them (currency mismatches, oversells).
type PortfolioRealizedPnL struct {
	PortfolioID          string             `json:"portfolioId"`
	Currency             string             `json:"currency"`
	TotalRealizedPnL     float64            `json:"totalRealizedPnL"`
	TotalRemainingBasis  float64            `json:"totalRemainingCostBasis"`
	TotalProcessedSells  int                `json:"totalProcessedSells"`
	FormattedRealizedPnL string             `json:"formattedRealizedPnL"`
	Assets               []AssetRealizedPnL `json:"assets"`
	Warnings             []PnLWarning       `json:"warnings,omitempty"`
}

// AssetRealizedPnLDetail is the single-asset FIFO result with its warnings,
// as returned by the per-asset endpoint.
type AssetRealizedPnLDetail struct {
	PortfolioID string `json:"portfolioId"`
	Currency    string `json:"currency"`
	AssetRealizedPnL
	Warnings []PnLWarning `json:"warnings,omitempty"`
}

// PnLWarning is the API shape of a calculation warning.
type PnLWarning struct {
	Code        string    `json:"code"`
	CoingeckoID string    `json:"coingeckoId"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}
