package withdrawer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/types"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
)

const (
	// gasQueryRetryAttempts bounds retries of the chain gas query. This is
	// estimation only, the submit path itself is never retried.
	gasQueryRetryAttempts = 3
	gasQueryRetryDelay    = 500 * time.Millisecond
)

// FeeEstimator produces gas limit and gas price estimates for unstake
// transactions. Estimation has no side effects beyond producing the two
// values.
type FeeEstimator interface {
	Start() error
	Stop() error
	// Estimate returns the current fee estimate for withdrawing the given
	// asset. feeAssetFiatPrice must be non negative and a new estimate must
	// be requested whenever the asset or the price changes.
	Estimate(ctx context.Context, asset *assets.Descriptor, feeAssetFiatPrice decimal.Decimal) (*types.FeeEstimate, error)
}

// DynamicFeeEstimator queries the chain for its current gas recommendation
// and enforces the configured min/max gas price range.
type DynamicFeeEstimator struct {
	chainClient chainclient.ChainClient
	logger      *logrus.Logger
	MinGasPrice decimal.Decimal
	MaxGasPrice decimal.Decimal
}

// NewDynamicFeeEstimator creates a dynamic estimator backed by the chain
// client, clamping results to the configured gas price range.
func NewDynamicFeeEstimator(
	cfg *scfg.WithdrawerConfig,
	chainClient chainclient.ChainClient,
	logger *logrus.Logger,
) (*DynamicFeeEstimator, error) {
	minGasPrice, err := decimal.NewFromString(cfg.MinGasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid min gas price: %w", err)
	}

	maxGasPrice, err := decimal.NewFromString(cfg.MaxGasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid max gas price: %w", err)
	}

	if minGasPrice.GreaterThan(maxGasPrice) {
		return nil, fmt.Errorf("min gas price %s is greater than max gas price %s", minGasPrice, maxGasPrice)
	}

	return &DynamicFeeEstimator{
		chainClient: chainClient,
		logger:      logger,
		MinGasPrice: minGasPrice,
		MaxGasPrice: maxGasPrice,
	}, nil
}

var _ FeeEstimator = (*DynamicFeeEstimator)(nil)

// Start satisfies the FeeEstimator interface. The underlying rpc client
// connects lazily.
func (e *DynamicFeeEstimator) Start() error {
	return nil
}

// Stop satisfies the FeeEstimator interface.
func (e *DynamicFeeEstimator) Stop() error {
	return nil
}

// Estimate queries the chain gas recommendation and clamps the gas price to
// the configured range. On failure no estimate is produced and the caller
// must keep submission blocked.
func (e *DynamicFeeEstimator) Estimate(
	ctx context.Context,
	asset *assets.Descriptor,
	feeAssetFiatPrice decimal.Decimal,
) (*types.FeeEstimate, error) {
	if asset == nil {
		return nil, fmt.Errorf("cannot estimate fees without a resolved asset")
	}

	if feeAssetFiatPrice.IsNegative() {
		return nil, fmt.Errorf("negative fiat price %s", feeAssetFiatPrice)
	}

	gasInfo, err := retry.DoWithData(
		func() (*chainclient.GasInfo, error) {
			return e.chainClient.GasInfo(ctx, asset.ID)
		},
		retry.Context(ctx),
		retry.Attempts(gasQueryRetryAttempts),
		retry.Delay(gasQueryRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to query gas info for %s: %w", asset.ID, err)
	}

	gasPrice := gasInfo.GasPrice

	if gasPrice.LessThan(e.MinGasPrice) {
		e.logger.WithFields(logrus.Fields{
			"minGasPrice": e.MinGasPrice,
			"estimated":   gasPrice,
		}).Debug("Estimated gas price is lower than min gas price. Using min gas price")
		gasPrice = e.MinGasPrice
	}

	if gasPrice.GreaterThan(e.MaxGasPrice) {
		e.logger.WithFields(logrus.Fields{
			"maxGasPrice": e.MaxGasPrice,
			"estimated":   gasPrice,
		}).Debug("Estimated gas price is higher than max gas price. Using max gas price")
		gasPrice = e.MaxGasPrice
	}

	return &types.FeeEstimate{
		GasLimit: strconv.FormatUint(gasInfo.UnstakeGasLimit, 10),
		GasPrice: gasPrice.String(),
	}, nil
}

// StaticFeeEstimator always returns the configured gas values.
type StaticFeeEstimator struct {
	GasLimit uint64
	GasPrice decimal.Decimal
}

var _ FeeEstimator = (*StaticFeeEstimator)(nil)

// NewStaticFeeEstimator creates a new static estimator with the provided
// gas limit and gas price.
func NewStaticFeeEstimator(gasLimit uint64, gasPrice decimal.Decimal) *StaticFeeEstimator {
	return &StaticFeeEstimator{
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}
}

// Start satisfies the FeeEstimator interface and is a no-op for static fees.
func (e *StaticFeeEstimator) Start() error {
	return nil
}

// Stop satisfies the FeeEstimator interface and is a no-op for static fees.
func (e *StaticFeeEstimator) Stop() error {
	return nil
}

// Estimate always returns the configured gas values.
func (e *StaticFeeEstimator) Estimate(
	_ context.Context,
	_ *assets.Descriptor,
	_ decimal.Decimal,
) (*types.FeeEstimate, error) {
	return &types.FeeEstimate{
		GasLimit: strconv.FormatUint(e.GasLimit, 10),
		GasPrice: e.GasPrice.String(),
	}, nil
}
