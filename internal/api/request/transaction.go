package request

type CreateTransactionRequest struct {
	PortfolioAssetID string  `json:"portfolioAssetId"`
	Kind             string  `json:"kind"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unitPrice"`
	Currency         string  `json:"currency"`
	ExecutedAt       string  `json:"executedAt"`
	Note             string  `json:"note"`
}

type UpdateTransactionRequest struct {
	Kind       *string  `json:"kind,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	UnitPrice  *float64 `json:"unitPrice,omitempty"`
	Currency   *string  `json:"currency,omitempty"`
	ExecutedAt *string  `json:"executedAt,omitempty"`
	Note       *string  `json:"note,omitempty"`
}
