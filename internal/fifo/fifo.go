// Package fifo implements the first-in-first-out realized profit-and-loss
// calculation for a single asset's transaction history.
//
// Each buy opens a lot at the transaction's unit price. Each sell consumes
// open lots strictly in acquisition order, oldest first, and realizes the
// difference between the sale price and the consumed lot's unit cost. Lots
// survive partial consumption across multiple sells; whatever remains open
// at the end of the history is returned to the caller together with its
// aggregate cost basis.
//
// The package performs no I/O and holds no state between invocations, so
// callers may process independent assets concurrently without coordination.
package fifo

import (
	"fmt"
	"math"
	"time"
)

// Epsilon is the absolute quantity tolerance for depletion checks. A lot
// whose remaining quantity is at or below this value is treated as fully
// consumed, and a sell with at most this much quantity left unmatched is
// treated as fully matched.
const Epsilon = 1e-8

// Kind identifies the direction of a transaction.
type Kind string

// Transaction kinds understood by the processor.
const (
	KindBuy  Kind = "buy"
	KindSell Kind = "sell"
)

// Transaction is a single buy or sell of an asset. Instances are read-only
// to the processor; Compute never modifies its input.
type Transaction struct {
	Kind      Kind
	AssetID   string
	Quantity  float64
	UnitPrice float64
	Currency  string
	Timestamp time.Time
}

// Lot is an open purchase batch tracked by the processor. Quantity decreases
// as sells consume the lot; UnitCost, Currency, and AcquiredAt are fixed by
// the originating buy.
type Lot struct {
	Quantity   float64   `json:"quantity"`
	UnitCost   float64   `json:"unitCost"`
	Currency   string    `json:"currency"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// CostBasis returns the remaining cost tied up in the lot.
func (l Lot) CostBasis() float64 {
	return l.Quantity * l.UnitCost
}

// Result is the outcome of processing one asset's transaction history.
type Result struct {
	// RealizedPnL accumulates matched quantity times the difference between
	// sale price and lot cost, across every sale/lot pair.
	RealizedPnL float64

	// RemainingLots holds the lots still open after the full history,
	// oldest first.
	RemainingLots []Lot

	// RemainingCostBasis is the sum of quantity times unit cost over
	// RemainingLots.
	RemainingCostBasis float64

	// ProcessedSellCount counts sell transactions encountered, whether or
	// not they were fully matched against open lots.
	ProcessedSellCount int
}

// WarningCode classifies a non-fatal condition observed during processing.
type WarningCode string

const (
	// WarnCurrencyMismatch is recorded when a sell is matched against a lot
	// acquired in a different currency, or when a remaining lot's currency
	// differs from the reporting currency. The numeric values are still
	// compared directly; no conversion is applied.
	WarnCurrencyMismatch WarningCode = "currency_mismatch"

	// WarnOversell is recorded when a sell's quantity exceeds the total
	// quantity of open lots. The unmatched remainder is dropped; no short
	// position is created.
	WarnOversell WarningCode = "oversell"
)

// Warning is a structured diagnostic record. Warnings never change the shape
// of the Result, only document the simplifications applied to its values.
type Warning struct {
	Code    WarningCode
	AssetID string

	// Expected and Found carry the two currency codes of a mismatch:
	// Expected is the sell or reporting currency, Found the lot currency.
	Expected string
	Found    string

	// Quantity is the unmatched remainder of an oversell.
	Quantity float64

	// Timestamp is the execution time of the offending sell, or the
	// acquisition time of a mismatched remaining lot.
	Timestamp time.Time
}

// Message renders the warning for logs and reports.
func (w Warning) Message() string {
	switch w.Code {
	case WarnCurrencyMismatch:
		return fmt.Sprintf("currency mismatch for %s: lot in %s compared against %s without conversion",
			w.AssetID, w.Found, w.Expected)
	case WarnOversell:
		return fmt.Sprintf("oversell for %s: %v units exceed recorded holdings and were dropped",
			w.AssetID, w.Quantity)
	}
	return string(w.Code)
}

// Compute processes one asset's transaction history and returns the realized
// profit and loss together with the surviving lots.
//
// The caller must supply transactions for a single asset, sorted ascending
// by timestamp, with positive quantities and unit prices. Compute does not
// sort, filter, or validate; results are unspecified if the preconditions
// are violated.
//
// Non-fatal conditions (currency mismatches, oversells) are returned as
// warnings alongside the result and never abort the calculation. Identical
// input always yields identical output.
func Compute(transactions []Transaction, reportingCurrency string) (Result, []Warning) {
	var (
		res      Result
		warnings []Warning
		lots     []Lot
		head     int
	)

	for _, tx := range transactions {
		switch tx.Kind {
		case KindBuy:
			lots = append(lots, Lot{
				Quantity:   tx.Quantity,
				UnitCost:   tx.UnitPrice,
				Currency:   tx.Currency,
				AcquiredAt: tx.Timestamp,
			})

		case KindSell:
			res.ProcessedSellCount++
			remaining := tx.Quantity

			for remaining > Epsilon && head < len(lots) {
				lot := &lots[head]

				if lot.Currency != tx.Currency {
					warnings = append(warnings, Warning{
						Code:      WarnCurrencyMismatch,
						AssetID:   tx.AssetID,
						Expected:  tx.Currency,
						Found:     lot.Currency,
						Timestamp: tx.Timestamp,
					})
				}

				matched := math.Min(remaining, lot.Quantity)
				res.RealizedPnL += matched * (tx.UnitPrice - lot.UnitCost)
				lot.Quantity -= matched
				remaining -= matched

				if lot.Quantity <= Epsilon {
					head++
				}
			}

			if remaining > Epsilon {
				warnings = append(warnings, Warning{
					Code:      WarnOversell,
					AssetID:   tx.AssetID,
					Quantity:  remaining,
					Timestamp: tx.Timestamp,
				})
			}
		}
	}

	res.RemainingLots = lots[head:]
	for _, lot := range res.RemainingLots {
		res.RemainingCostBasis += lot.CostBasis()
		if lot.Currency != reportingCurrency {
			warnings = append(warnings, Warning{
				Code:      WarnCurrencyMismatch,
				AssetID:   assetIDOf(transactions),
				Expected:  reportingCurrency,
				Found:     lot.Currency,
				Timestamp: lot.AcquiredAt,
			})
		}
	}

	return res, warnings
}

// assetIDOf reports the single asset id the history belongs to, or the empty
// string for an empty history.
func assetIDOf(transactions []Transaction) string {
	if len(transactions) == 0 {
		return ""
	}
	return transactions[0].AssetID
}
