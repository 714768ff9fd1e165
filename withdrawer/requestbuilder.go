package withdrawer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/shopspring/decimal"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/types"
)

var (
	// ErrNoFeeEstimate is returned when a request is built before fee
	// estimation has produced a result.
	ErrNoFeeEstimate = errors.New("no fee estimate available")
	// ErrNoDerivationParams is returned when the account has no resolved
	// derivation path.
	ErrNoDerivationParams = errors.New("no derivation params available")
	// ErrEmptyTxID is returned when the wallet reports success without a
	// transaction id, which still counts as a failed broadcast.
	ErrEmptyTxID = errors.New("wallet returned empty transaction id")
)

// toBaseUnits converts a human readable amount into the asset's base unit
// representation, i.e. amount multiplied by 10^precision rounded to an
// integer. Exact for precisions up to 18 decimal places.
func toBaseUnits(amount string, precision uint32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	if d.IsNegative() {
		return "", fmt.Errorf("amount %q must not be negative", amount)
	}

	return d.Shift(int32(precision)).Round(0).String(), nil
}

// validateValidatorAddress checks that the operator address is valid bech32
// with a validator operator prefix.
func validateValidatorAddress(address string) error {
	hrp, _, err := bech32.DecodeAndConvert(address)
	if err != nil {
		return fmt.Errorf("invalid validator address %q: %w", address, err)
	}

	if !strings.HasSuffix(hrp, "valoper") {
		return fmt.Errorf("address %q is not a validator operator address", address)
	}

	return nil
}

// buildUnstakeRequest assembles the signed-and-broadcast payload from the
// resolved asset, derivation params and the current fee estimate. The value
// is the withdrawn amount in base units of the withdrawn asset.
//
// The fee field carries the gas price scaled by the withdrawn asset's
// precision, not the fee asset's. Downstream fee accounting relies on this
// scaling, so it must not be changed to the fee asset precision.
func buildUnstakeRequest(
	asset *assets.Descriptor,
	derivationParams *chainclient.DerivationParams,
	validator string,
	feeEstimate *types.FeeEstimate,
	cryptoAmount string,
	memo string,
) (*chainclient.UnstakeRequest, error) {
	if feeEstimate == nil {
		return nil, ErrNoFeeEstimate
	}

	if err := feeEstimate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee estimate: %w", err)
	}

	if derivationParams == nil {
		return nil, ErrNoDerivationParams
	}

	if err := validateValidatorAddress(validator); err != nil {
		return nil, err
	}

	value, err := toBaseUnits(cryptoAmount, asset.Precision)
	if err != nil {
		return nil, fmt.Errorf("invalid withdrawal amount: %w", err)
	}

	gasPrice, err := decimal.NewFromString(feeEstimate.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price %q: %w", feeEstimate.GasPrice, err)
	}

	fee := gasPrice.Shift(int32(asset.Precision)).Round(0).String()

	return &chainclient.UnstakeRequest{
		AssetID:          asset.ID,
		Validator:        validator,
		Gas:              feeEstimate.GasLimit,
		Fee:              fee,
		Value:            value,
		DerivationParams: derivationParams,
		Memo:             memo,
	}, nil
}
