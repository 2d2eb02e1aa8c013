package request

// BatchMarketChartRequest represents the request body for fetching historical
// market data for multiple coins in one call.
type BatchMarketChartRequest struct {
	CoinIDs    []string `json:"coin_ids"`
	VsCurrency string   `json:"vs_currency"`
	Days       int      `json:"days"`
}
