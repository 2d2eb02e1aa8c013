package validation

import (
	"fmt"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
)

// ValidateMarketQuery validates the query parameters for the market data
// listing endpoint.
//
// Constraints:
//   - vsCurrency: Must be a supported quote currency
//   - perPage: Must be between 1 and 250
//   - page: Must be 1 or greater
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateMarketQuery(vsCurrency string, perPage, page int) error {
	errors := make(map[string]string)

	if !ValidCurrency[vsCurrency] {
		errors["vs_currency"] = fmt.Sprintf("unsupported currency: %s", vsCurrency)
	}

	if perPage < 1 || perPage > 250 {
		errors["per_page"] = "per_page must be between 1 and 250"
	}

	if page < 1 {
		errors["page"] = "page must be 1 or greater"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateBatchMarketChart validates a batch historical market data request.
//
// Constraints:
//   - coin_ids: Must contain at least one coin identifier
//   - vs_currency: Must be a supported quote currency
//   - days: Must be between 1 and 10000
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateBatchMarketChart(req request.BatchMarketChartRequest) error {
	errors := make(map[string]string)

	if len(req.CoinIDs) == 0 {
		errors["coin_ids"] = "coin_ids must contain at least one coin"
	}

	if !ValidCurrency[req.VsCurrency] {
		errors["vs_currency"] = fmt.Sprintf("unsupported currency: %s", req.VsCurrency)
	}

	if req.Days < 1 || req.Days > 10000 {
		errors["days"] = "days must be between 1 and 10000"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
