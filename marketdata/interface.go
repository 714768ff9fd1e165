// Package marketdata provides fiat price lookups for assets. Prices feed
// the fee estimator, which must re-estimate whenever the price changes.
package marketdata

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource returns the current fiat price of an asset. Implementations
// must not cache across calls, financial correctness depends on freshness.
type PriceSource interface {
	// PriceOf returns the fiat price for the given market identifier
	// (assets.Descriptor.MarketID).
	PriceOf(ctx context.Context, marketID string) (decimal.Decimal, error)
}
