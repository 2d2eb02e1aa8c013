package model

import "time"

// Asset represents a tracked cryptocurrency from the database
type Asset struct {
	ID          string    `json:"id"`
	CoingeckoID string    `json:"coingeckoId"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// AssetPrice represents a stored daily price point for an asset.
type AssetPrice struct {
	ID       string    `json:"id"`
	AssetID  string    `json:"assetId"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
}

// AssetResponse represents an asset with its latest stored price attached
// for API responses. LatestPrice is zero when no price has been stored yet.
type AssetResponse struct {
	ID              string  `json:"id"`
	CoingeckoID     string  `json:"coingeckoId"`
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	LatestPrice     float64 `json:"latestPrice"`
	LatestPriceDate string  `json:"latestPriceDate,omitempty"` // YYYY-MM-DD
}
