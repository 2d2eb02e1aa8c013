package model

// PriceRefreshResponse represents the response for bulk asset price refresh
// operations. It provides detailed information about both successful and
// failed asset updates, allowing clients to identify which assets were
// refreshed and which encountered errors. Success is true if at least one
// asset was successfully refreshed.
type PriceRefreshResponse struct {
	Success       bool                `json:"success"`       // true if at least one asset was successfully refreshed
	UpdatedAssets []UpdatedAsset      `json:"updatedAssets"` // Successfully refreshed assets with details
	Errors        []UpdatedAssetError `json:"errors"`        // Assets that failed to refresh with error messages
	TotalUpdated  int                 `json:"totalUpdated"`  // Count of successfully refreshed assets
	TotalErrors   int                 `json:"totalErrors"`   // Count of assets that failed to refresh
}

// UpdatedAsset represents a successfully refreshed asset with details about
// the operation.
type UpdatedAsset struct {
	AssetID     string `json:"assetId"`     // Unique identifier of the asset
	CoingeckoID string `json:"coingeckoId"` // Provider identifier of the asset
	Symbol      string `json:"symbol"`      // Trading symbol of the asset
	PricesAdded int    `json:"pricesAdded"` // Number of new daily price records added
}

// UpdatedAssetError represents an asset that failed to refresh with error
// details.
type UpdatedAssetError struct {
	AssetID     string `json:"assetId"`     // Unique identifier of the asset
	CoingeckoID string `json:"coingeckoId"` // Provider identifier of the asset
	Symbol      string `json:"symbol"`      // Trading symbol of the asset
	Error       string `json:"error"`       // Error message describing why the refresh failed
}
