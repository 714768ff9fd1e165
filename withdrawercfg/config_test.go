package withdrawercfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlabs-io/stake-withdrawer/types"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.WithdrawerdDir = t.TempDir()
	return &cfg
}

func TestValidateDefaultConfig(t *testing.T) {
	cfg, err := ValidateConfig(testConfig(t))
	require.NoError(t, err)

	// Without explicit listeners the default one is added.
	require.Len(t, cfg.RPCListeners, 1)
	require.Contains(t, cfg.RPCListeners[0].String(), "15812")
}

func TestValidateConfigRejectsBadGasPrices(t *testing.T) {
	cfg := testConfig(t)
	cfg.WithdrawerConfig.MinGasPrice = "not-a-number"

	_, err := ValidateConfig(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.WithdrawerConfig.MinGasPrice = "2"
	cfg.WithdrawerConfig.MaxGasPrice = "1"

	_, err = ValidateConfig(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.WithdrawerConfig.StaticGasPrice = "-1"

	_, err = ValidateConfig(cfg)
	require.Error(t, err)
}

func TestValidateConfigRejectsEmptyAsset(t *testing.T) {
	cfg := testConfig(t)
	cfg.WithdrawerConfig.AssetID = ""

	_, err := ValidateConfig(cfg)
	require.Error(t, err)
}

func TestEstimationMode(t *testing.T) {
	cfg := DefaultWithdrawerConfig()
	require.Equal(t, types.DynamicFeeEstimation, cfg.EstimationMode())

	cfg.FeeEstimationMode = "static"
	require.Equal(t, types.StaticFeeEstimation, cfg.EstimationMode())
}

func TestFeeAssetFallsBackToWithdrawnAsset(t *testing.T) {
	cfg := DefaultWithdrawerConfig()
	require.Equal(t, cfg.AssetID, cfg.FeeAsset())

	cfg.FeeAssetID = "osmosis/uosmo"
	require.Equal(t, "osmosis/uosmo", cfg.FeeAsset())
}
