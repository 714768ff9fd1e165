// Package chainclient defines the chain query collaborator of the
// withdrawer and its JSON-RPC implementation.
package chainclient

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound is returned when derivation parameters for the
	// requested account cannot be resolved.
	ErrAccountNotFound = errors.New("account not known to chain client")
)

// DerivationParams are the BIP44 style derivation parameters of an account.
// They are resolved by the chain client and treated as read only here.
type DerivationParams struct {
	Purpose      uint32 `json:"purpose"`
	CoinType     uint32 `json:"coin_type"`
	AccountIndex uint32 `json:"account_index"`
}

// GasInfo carries the chain's current gas recommendation for an unstake
// transaction.
type GasInfo struct {
	// UnstakeGasLimit is the recommended gas limit for an unstake message.
	UnstakeGasLimit uint64
	// GasPrice is the current gas price in fee asset base units per gas
	// unit.
	GasPrice decimal.Decimal
}

// UnstakeRequest is the chain specific unstake transaction request handed to
// the signing collaborator. All amount fields are base unit integer strings,
// except Gas price scaling which is applied by the request builder.
type UnstakeRequest struct {
	// AssetID identifies the asset being withdrawn.
	AssetID string `json:"asset_id"`
	// Validator is the bech32 validator operator address unstaked from.
	Validator string `json:"validator"`
	// Gas is the gas limit as an integer string.
	Gas string `json:"gas"`
	// Fee is the transaction fee in base units, scaled by the withdrawn
	// asset's precision.
	Fee string `json:"fee"`
	// Value is the withdrawn amount in base units of the withdrawn asset.
	Value string `json:"value"`
	// DerivationParams select the signing account.
	DerivationParams *DerivationParams `json:"derivation_params"`
	// Memo is an optional transaction memo, only honored by wallets which
	// support memo editing.
	Memo string `json:"memo,omitempty"`
}

// ChainClient defines the chain queries the withdrawer relies on.
type ChainClient interface {
	// AccountDerivationParams resolves the derivation parameters of the
	// account, or ErrAccountNotFound.
	AccountDerivationParams(ctx context.Context, accountID string) (*DerivationParams, error)
	// Balance returns the human readable balance of the given asset held by
	// the account.
	Balance(ctx context.Context, assetID string, accountID string) (decimal.Decimal, error)
	// GasInfo returns the chain's current gas recommendation for unstaking
	// the given asset.
	GasInfo(ctx context.Context, assetID string) (*GasInfo, error)
}
