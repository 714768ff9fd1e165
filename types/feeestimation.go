// Package types provides common type definitions for the withdrawer daemon.
// nolint: revive
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeEstimationMode represents the fee estimation mode.
type FeeEstimationMode int

const (
	// StaticFeeEstimation uses gas values from the configuration.
	StaticFeeEstimation FeeEstimationMode = iota
	// DynamicFeeEstimation queries the chain for current gas values.
	DynamicFeeEstimation
)

// FeeEstimate is the output of a successful fee estimation. GasLimit is a
// string encoded integer. GasPrice is a string encoded decimal, denominated
// in fee asset base units per gas unit.
type FeeEstimate struct {
	GasLimit string
	GasPrice string
}

// Validate checks that both fields parse and are non-negative.
func (e *FeeEstimate) Validate() error {
	limit, err := decimal.NewFromString(e.GasLimit)
	if err != nil {
		return fmt.Errorf("invalid gas limit %q: %w", e.GasLimit, err)
	}

	if !limit.IsInteger() || limit.IsNegative() {
		return fmt.Errorf("gas limit %q is not a non-negative integer", e.GasLimit)
	}

	price, err := decimal.NewFromString(e.GasPrice)
	if err != nil {
		return fmt.Errorf("invalid gas price %q: %w", e.GasPrice, err)
	}

	if price.IsNegative() {
		return fmt.Errorf("gas price %q is negative", e.GasPrice)
	}

	return nil
}

// GasCostBaseUnits returns gasLimit * gasPrice, the estimated total gas cost
// in fee asset base units. Estimates which do not parse are treated as zero
// cost, mirroring the zero fallback of the balance check.
func (e *FeeEstimate) GasCostBaseUnits() decimal.Decimal {
	if e == nil {
		return decimal.Zero
	}

	limit, err := decimal.NewFromString(e.GasLimit)
	if err != nil {
		return decimal.Zero
	}

	price, err := decimal.NewFromString(e.GasPrice)
	if err != nil {
		return decimal.Zero
	}

	return limit.Mul(price)
}
