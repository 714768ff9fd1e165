package withdrawer

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
)

type stubChainClient struct {
	gasInfo          *chainclient.GasInfo
	gasInfoErr       error
	derivationParams *chainclient.DerivationParams
	balance          decimal.Decimal
	balanceErr       error
}

var _ chainclient.ChainClient = (*stubChainClient)(nil)

func (c *stubChainClient) AccountDerivationParams(_ context.Context, _ string) (*chainclient.DerivationParams, error) {
	if c.derivationParams == nil {
		return nil, chainclient.ErrAccountNotFound
	}
	return c.derivationParams, nil
}

func (c *stubChainClient) Balance(_ context.Context, _ string, _ string) (decimal.Decimal, error) {
	if c.balanceErr != nil {
		return decimal.Zero, c.balanceErr
	}
	return c.balance, nil
}

func (c *stubChainClient) GasInfo(_ context.Context, _ string) (*chainclient.GasInfo, error) {
	if c.gasInfoErr != nil {
		return nil, c.gasInfoErr
	}
	return c.gasInfo, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func dynamicEstimatorConfig(minPrice, maxPrice string) *scfg.WithdrawerConfig {
	cfg := scfg.DefaultWithdrawerConfig()
	cfg.MinGasPrice = minPrice
	cfg.MaxGasPrice = maxPrice
	return &cfg
}

func TestStaticFeeEstimator(t *testing.T) {
	estimator := NewStaticFeeEstimator(300000, decimal.RequireFromString("0.025"))

	require.NoError(t, estimator.Start())
	defer func() {
		require.NoError(t, estimator.Stop())
	}()

	estimate, err := estimator.Estimate(context.Background(), testAsset, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.Equal(t, "300000", estimate.GasLimit)
	require.Equal(t, "0.025", estimate.GasPrice)
	require.NoError(t, estimate.Validate())
}

func TestDynamicFeeEstimator(t *testing.T) {
	cc := &stubChainClient{
		gasInfo: &chainclient.GasInfo{
			UnstakeGasLimit: 250000,
			GasPrice:        decimal.RequireFromString("0.03"),
		},
	}

	estimator, err := NewDynamicFeeEstimator(dynamicEstimatorConfig("0.001", "1"), cc, testLogger())
	require.NoError(t, err)

	estimate, err := estimator.Estimate(context.Background(), testAsset, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.Equal(t, "250000", estimate.GasLimit)
	require.Equal(t, "0.03", estimate.GasPrice)
}

func TestDynamicFeeEstimatorClampsGasPrice(t *testing.T) {
	tests := []struct {
		name     string
		chain    string
		expected string
	}{
		{
			name:     "below min is raised",
			chain:    "0.0001",
			expected: "0.001",
		},
		{
			name:     "above max is lowered",
			chain:    "5",
			expected: "1",
		},
		{
			name:     "inside range passes through",
			chain:    "0.5",
			expected: "0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := &stubChainClient{
				gasInfo: &chainclient.GasInfo{
					UnstakeGasLimit: 200000,
					GasPrice:        decimal.RequireFromString(tt.chain),
				},
			}

			estimator, err := NewDynamicFeeEstimator(dynamicEstimatorConfig("0.001", "1"), cc, testLogger())
			require.NoError(t, err)

			estimate, err := estimator.Estimate(context.Background(), testAsset, decimal.NewFromInt(10))
			require.NoError(t, err)
			require.Equal(t, tt.expected, estimate.GasPrice)
		})
	}
}

func TestDynamicFeeEstimatorErrors(t *testing.T) {
	cc := &stubChainClient{
		gasInfoErr: fmt.Errorf("chain unavailable"),
	}

	estimator, err := NewDynamicFeeEstimator(dynamicEstimatorConfig("0.001", "1"), cc, testLogger())
	require.NoError(t, err)

	_, err = estimator.Estimate(context.Background(), testAsset, decimal.NewFromInt(10))
	require.Error(t, err)

	_, err = estimator.Estimate(context.Background(), nil, decimal.NewFromInt(10))
	require.Error(t, err)

	_, err = estimator.Estimate(context.Background(), testAsset, decimal.NewFromInt(-1))
	require.Error(t, err)
}

func TestDynamicFeeEstimatorRejectsInvertedRange(t *testing.T) {
	_, err := NewDynamicFeeEstimator(dynamicEstimatorConfig("2", "1"), &stubChainClient{}, testLogger())
	require.Error(t, err)
}
