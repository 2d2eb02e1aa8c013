package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
)

var coingeckoIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func ValidateCreateAsset(req request.CreateAssetRequest) error {
	errors := make(map[string]string)

	// Required field
	if strings.TrimSpace(req.CoingeckoID) == "" {
		errors["coingeckoId"] = "coingeckoId is required"
	} else if !coingeckoIDPattern.MatchString(req.CoingeckoID) {
		errors["coingeckoId"] = "coingeckoId must be a lowercase CoinGecko slug (e.g. bitcoin)"
	}

	if strings.TrimSpace(req.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	} else if len(req.Symbol) > 10 {
		errors["symbol"] = "symbol must be 10 characters or less"
	}

	if len(req.Name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if strings.TrimSpace(req.Currency) == "" {
		errors["currency"] = "currency is required"
	} else if !ValidCurrency[req.Currency] {
		errors["currency"] = fmt.Sprintf("unsupported currency: %s", req.Currency)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func ValidateUpdateAsset(req request.UpdateAssetRequest) error {
	errors := make(map[string]string)

	// Only validate provided fields
	if req.Symbol != nil {
		if strings.TrimSpace(*req.Symbol) == "" {
			errors["symbol"] = "symbol cannot be empty"
		} else if len(*req.Symbol) > 10 {
			errors["symbol"] = "symbol must be 10 characters or less"
		}
	}

	if req.Name != nil && len(*req.Name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if req.Currency != nil {
		if strings.TrimSpace(*req.Currency) == "" {
			errors["currency"] = "currency cannot be empty"
		} else if !ValidCurrency[*req.Currency] {
			errors["currency"] = fmt.Sprintf("unsupported currency: %s", *req.Currency)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
