package model

// CoinHistory carries the historical series for one coin as returned by the
// market data provider: [timestamp-milliseconds, value] pairs.
type CoinHistory struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// BatchHistory is the response of the batch historical data operation.
// Failed coins land in Errors keyed by coin id without failing the batch.
type BatchHistory struct {
	Data   map[string]CoinHistory `json:"data"`
	Errors map[string]string      `json:"errors,omitempty"`
}
