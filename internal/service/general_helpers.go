package service

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// RoundingPrecision is the multiplier used to round monetary values in API
// responses to two decimal places.
const RoundingPrecision = 100

// round rounds a float64 value to two decimal places using the package RoundingPrecision constant.
// This function is used throughout the service layer to ensure consistent rounding of monetary
// values in API responses. Asset quantities are never rounded; crypto
// positions are meaningful far below 0.01.
//
// The rounding uses the standard "round half up" approach via math.Round.
func round(value float64) float64 {
	return math.Round(value*RoundingPrecision) / RoundingPrecision
}

// formatMoney renders a monetary value as a display string in the given
// currency, e.g. "$17,500.00" or "17 500,00 kr". The currency registry
// supplies the symbol, separators, and fraction digits; unknown codes fall
// back to a generic format rather than failing.
func formatMoney(value float64, currencyCode string) string {
	cur := money.New(0, strings.ToUpper(currencyCode)).Currency()
	minorUnits := int64(math.Round(value * math.Pow10(cur.Fraction)))
	return cur.Formatter().Format(minorUnits)
}
