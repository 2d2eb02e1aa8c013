package request

type CreateAssetRequest struct {
	CoingeckoID string `json:"coingeckoId"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
}

type UpdateAssetRequest struct {
	Symbol   *string `json:"symbol,omitempty"`
	Name     *string `json:"name,omitempty"`
	Currency *string `json:"currency,omitempty"`
}
