package model

// PortfolioAsset links an asset into a portfolio. Transactions hang off the
// link rather than the asset, so the same coin can be tracked in several
// portfolios independently.
type PortfolioAsset struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	AssetID     string `json:"assetId"`
}

// PortfolioAssetResponse represents a portfolio-asset link enriched with the
// asset it points at, for API responses.
type PortfolioAssetResponse struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	AssetID     string `json:"assetId"`
	CoingeckoID string `json:"coingeckoId"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
}
