package withdrawer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/types"
)

// Valid bech32 pair sharing one payload, generated with bech32.ConvertAndEncode.
const (
	testValidator      = "cosmosvaloper1sjllsnramtg3ewxqwwrwjxfgc4n4ef9u2lcnj0"
	testAccountAddress = "cosmos1sjllsnramtg3ewxqwwrwjxfgc4n4ef9u0tvx7u"
)

var testAsset = &assets.Descriptor{
	ID:        "cosmoshub/uatom",
	Symbol:    "ATOM",
	Precision: 6,
	MarketID:  "cosmos",
}

var testDerivationParams = &chainclient.DerivationParams{
	Purpose:      44,
	CoinType:     118,
	AccountIndex: 0,
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		precision uint32
		expected  string
	}{
		{
			name:      "whole amount",
			amount:    "10",
			precision: 6,
			expected:  "10000000",
		},
		{
			name:      "fractional amount",
			amount:    "1.5",
			precision: 6,
			expected:  "1500000",
		},
		{
			name:      "zero",
			amount:    "0",
			precision: 6,
			expected:  "0",
		},
		{
			name:      "zero precision",
			amount:    "42",
			precision: 0,
			expected:  "42",
		},
		{
			name:      "sub base unit rounds",
			amount:    "0.0000004",
			precision: 6,
			expected:  "0",
		},
		{
			name:      "18 decimal places stay exact",
			amount:    "1.000000000000000001",
			precision: 18,
			expected:  "1000000000000000001",
		},
		{
			name:      "large amount at precision 18",
			amount:    "123456.789012345678901234",
			precision: 18,
			expected:  "123456789012345678901234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := toBaseUnits(tt.amount, tt.precision)
			require.NoError(t, err)
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestToBaseUnitsRejectsBadAmounts(t *testing.T) {
	_, err := toBaseUnits("not-a-number", 6)
	require.Error(t, err)

	_, err = toBaseUnits("-1", 6)
	require.Error(t, err)

	_, err = toBaseUnits("", 6)
	require.Error(t, err)
}

func TestBuildUnstakeRequest(t *testing.T) {
	feeEstimate := &types.FeeEstimate{
		GasLimit: "200000",
		GasPrice: "0.5",
	}

	req, err := buildUnstakeRequest(
		testAsset,
		testDerivationParams,
		testValidator,
		feeEstimate,
		"10",
		"",
	)
	require.NoError(t, err)

	require.Equal(t, "cosmoshub/uatom", req.AssetID)
	require.Equal(t, testValidator, req.Validator)
	require.Equal(t, "200000", req.Gas)
	require.Equal(t, "10000000", req.Value)
	require.Equal(t, testDerivationParams, req.DerivationParams)

	// The fee is the gas price scaled by the withdrawn asset's precision.
	require.Equal(t, "500000", req.Fee)
}

func TestBuildUnstakeRequestCarriesMemo(t *testing.T) {
	feeEstimate := &types.FeeEstimate{
		GasLimit: "200000",
		GasPrice: "0.5",
	}

	req, err := buildUnstakeRequest(
		testAsset,
		testDerivationParams,
		testValidator,
		feeEstimate,
		"1",
		"unstake memo",
	)
	require.NoError(t, err)
	require.Equal(t, "unstake memo", req.Memo)
}

func TestBuildUnstakeRequestErrors(t *testing.T) {
	feeEstimate := &types.FeeEstimate{
		GasLimit: "200000",
		GasPrice: "0.5",
	}

	_, err := buildUnstakeRequest(testAsset, testDerivationParams, testValidator, nil, "10", "")
	require.ErrorIs(t, err, ErrNoFeeEstimate)

	_, err = buildUnstakeRequest(testAsset, nil, testValidator, feeEstimate, "10", "")
	require.ErrorIs(t, err, ErrNoDerivationParams)

	// Account addresses are valid bech32 but not validator operators.
	_, err = buildUnstakeRequest(testAsset, testDerivationParams, testAccountAddress, feeEstimate, "10", "")
	require.Error(t, err)

	_, err = buildUnstakeRequest(testAsset, testDerivationParams, "garbage", feeEstimate, "10", "")
	require.Error(t, err)

	_, err = buildUnstakeRequest(testAsset, testDerivationParams, testValidator, feeEstimate, "-10", "")
	require.Error(t, err)

	badEstimate := &types.FeeEstimate{GasLimit: "abc", GasPrice: "0.5"}
	_, err = buildUnstakeRequest(testAsset, testDerivationParams, testValidator, badEstimate, "10", "")
	require.Error(t, err)
}
