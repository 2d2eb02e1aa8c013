package validation

import (
	"fmt"
	"strings"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
)

// ValidKind contains the allowed transaction kind values.
var ValidKind = map[string]bool{
	"buy": true, "sell": true,
}

// ValidCurrency contains the quote currencies the application supports.
var ValidCurrency = map[string]bool{
	"usd": true, "eur": true, "sek": true,
}

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - portfolioAssetId: Must be a valid UUID
//   - kind: Must be one of: buy, sell
//   - quantity: Must be positive
//   - unitPrice: Must be positive
//   - currency: Must be a supported quote currency
//   - executedAt: Must be in YYYY-MM-DD or RFC3339 format
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	portfolioAssetErr := ValidateUUID(req.PortfolioAssetID)
	if portfolioAssetErr != nil {
		return portfolioAssetErr
	}

	if strings.TrimSpace(req.Kind) == "" {
		errors["kind"] = "kind is required"
	} else if !ValidKind[req.Kind] {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	if req.Quantity <= 0.0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.UnitPrice <= 0.0 {
		errors["unitPrice"] = "unitPrice must be positive"
	}

	if strings.TrimSpace(req.Currency) == "" {
		errors["currency"] = "currency is required"
	} else if !ValidCurrency[req.Currency] {
		errors["currency"] = fmt.Sprintf("unsupported currency: %s", req.Currency)
	}

	if strings.TrimSpace(req.ExecutedAt) == "" {
		errors["executedAt"] = "executedAt is required"
	} else if _, err := ParseTime(req.ExecutedAt); err != nil {
		errors["executedAt"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.Kind != nil {
		if strings.TrimSpace(*req.Kind) == "" {
			errors["kind"] = "kind is required"
		} else if !ValidKind[*req.Kind] {
			errors["kind"] = fmt.Sprintf("invalid kind: %s", *req.Kind)
		}
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0.0 {
			errors["quantity"] = "quantity must be positive"
		}
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice <= 0.0 {
			errors["unitPrice"] = "unitPrice must be positive"
		}
	}
	if req.Currency != nil {
		if strings.TrimSpace(*req.Currency) == "" {
			errors["currency"] = "currency is required"
		} else if !ValidCurrency[*req.Currency] {
			errors["currency"] = fmt.Sprintf("unsupported currency: %s", *req.Currency)
		}
	}
	if req.ExecutedAt != nil {
		if strings.TrimSpace(*req.ExecutedAt) == "" {
			errors["executedAt"] = "executedAt is required"
		} else if _, err := ParseTime(*req.ExecutedAt); err != nil {
			errors["executedAt"] = err.Error()
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
