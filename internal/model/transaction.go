package model

import "time"

// Transaction represents a buy or sell of an asset within a portfolio.
// Used internally for calculations and data processing.
type Transaction struct {
	ID               string    `json:"id"`
	PortfolioAssetID string    `json:"portfolioAssetId"`
	Kind             string    `json:"kind"`
	Quantity         float64   `json:"quantity"`
	UnitPrice        float64   `json:"unitPrice"`
	Currency         string    `json:"currency"`
	ExecutedAt       time.Time `json:"executedAt"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

// TransactionResponse represents a transaction with enriched data for API
// responses. Includes the asset the portfolio link points at.
type TransactionResponse struct {
	ID               string    `json:"id"`
	PortfolioAssetID string    `json:"portfolioAssetId"`
	AssetID          string    `json:"assetId"`
	CoingeckoID      string    `json:"coingeckoId"`
	Symbol           string    `json:"symbol"`
	Kind             string    `json:"kind"`
	Quantity         float64   `json:"quantity"`
	UnitPrice        float64   `json:"unitPrice"`
	Currency         string    `json:"currency"`
	ExecutedAt       time.Time `json:"executedAt"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TransactionFilter controls which transactions are returned by ledger
// listing queries. Zero values leave the corresponding criterion unapplied.
type TransactionFilter struct {
	PortfolioID      string
	PortfolioAssetID string
	StartDate        time.Time
	EndDate          time.Time
}

// ImportRowError describes a CSV row that could not be imported.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes a CSV transaction import.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}
