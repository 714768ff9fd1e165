package withdrawer

import (
	"github.com/shopspring/decimal"
)

// parseDecimalOrZero treats a missing or malformed amount as zero. Balance
// checks never fail hard on bad upstream data, they conservatively report
// the lowest possible balance instead.
func parseDecimalOrZero(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// HasSufficientGasBalance reports whether the fee asset balance covers the
// estimated gas cost. The balance is a human readable amount while the gas
// cost is denominated in the fee asset's base units, so the cost is scaled
// down by the fee asset precision before comparing.
func HasSufficientGasBalance(
	feeAssetBalance string,
	estimatedGasBaseUnits string,
	feeAssetPrecision uint32,
) bool {
	balance := parseDecimalOrZero(feeAssetBalance)
	gasCost := parseDecimalOrZero(estimatedGasBaseUnits).Shift(-int32(feeAssetPrecision))
	return balance.Sub(gasCost).GreaterThanOrEqual(decimal.Zero)
}
