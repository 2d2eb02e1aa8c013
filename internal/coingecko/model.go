package coingecko

import (
	"fmt"
	"strings"
)

// MarketCoin mirrors one entry of the provider's /coins/markets response.
// Optional fields are pointers so provider nulls survive the round trip to
// API consumers unchanged.
type MarketCoin struct {
	ID                           string   `json:"id"`
	Symbol                       string   `json:"symbol"`
	Name                         string   `json:"name"`
	Image                        string   `json:"image"`
	CurrentPrice                 *float64 `json:"current_price"`
	MarketCap                    *float64 `json:"market_cap"`
	MarketCapRank                *int     `json:"market_cap_rank"`
	TotalVolume                  *float64 `json:"total_volume"`
	High24h                      *float64 `json:"high_24h"`
	Low24h                       *float64 `json:"low_24h"`
	PriceChange24h               *float64 `json:"price_change_24h"`
	PriceChangePercentage24h     *float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h           *float64 `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h *float64 `json:"market_cap_change_percentage_24h"`
	CirculatingSupply            *float64 `json:"circulating_supply"`
	TotalSupply                  *float64 `json:"total_supply"`
	MaxSupply                    *float64 `json:"max_supply"`
	ATH                          *float64 `json:"ath"`
	ATHChangePercentage          *float64 `json:"ath_change_percentage"`
	ATHDate                      *string  `json:"ath_date"`
	ATL                          *float64 `json:"atl"`
	ATLChangePercentage          *float64 `json:"atl_change_percentage"`
	ATLDate                      *string  `json:"atl_date"`
	ROI                          *ROI     `json:"roi"`
	LastUpdated                  *string  `json:"last_updated"`
}

// ROI is the provider's return-on-investment block, present for a handful of
// coins and null for the rest.
type ROI struct {
	Times      float64 `json:"times"`
	Currency   string  `json:"currency"`
	Percentage float64 `json:"percentage"`
}

// MarketChart carries one coin's historical series as returned by
// /coins/{id}/market_chart: [timestamp-milliseconds, value] pairs.
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// StatusError reports a non-2xx response from the provider. The upstream
// status code passes through to API clients; Body holds the provider's error
// text truncated to 200 characters.
type StatusError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko status %d on %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

func newStatusError(status int, endpoint string, body []byte) *StatusError {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return &StatusError{StatusCode: status, Endpoint: endpoint, Body: detail}
}
