package chainclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsonrpcclient "github.com/cometbft/cometbft/rpc/jsonrpc/client"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RPCChainClient talks to a chain gateway daemon over JSON-RPC. The gateway
// owns the wire protocol of the chain, this client only exchanges plain
// query results.
type RPCChainClient struct {
	client *jsonrpcclient.Client
	logger *logrus.Logger
}

var _ ChainClient = (*RPCChainClient)(nil)

func NewRPCChainClient(remoteAddress string, logger *logrus.Logger) (*RPCChainClient, error) {
	client, err := jsonrpcclient.New(remoteAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain rpc client: %w", err)
	}

	return &RPCChainClient{
		client: client,
		logger: logger,
	}, nil
}

type derivationParamsResult struct {
	Found  bool             `json:"found"`
	Params DerivationParams `json:"params"`
}

type balanceResult struct {
	// human readable balance as decimal string
	Balance string `json:"balance"`
}

type gasInfoResult struct {
	UnstakeGasLimit uint64 `json:"unstake_gas_limit"`
	// gas price as decimal string, base units per gas
	GasPrice string `json:"gas_price"`
}

// AccountDerivationParams resolves the derivation parameters of an account.
func (c *RPCChainClient) AccountDerivationParams(ctx context.Context, accountID string) (*DerivationParams, error) {
	result := new(derivationParamsResult)

	params := map[string]interface{}{
		"account_id": accountID,
	}

	if _, err := c.client.Call(ctx, "derivation_params", params, result); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("failed to query derivation params: %w", err)
	}

	if !result.Found {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
	}

	paramsCopy := result.Params
	return &paramsCopy, nil
}

// Balance returns the human readable balance of the asset for the account.
func (c *RPCChainClient) Balance(ctx context.Context, assetID string, accountID string) (decimal.Decimal, error) {
	result := new(balanceResult)

	params := map[string]interface{}{
		"asset_id":   assetID,
		"account_id": accountID,
	}

	if _, err := c.client.Call(ctx, "balance", params, result); err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance: %w", err)
	}

	balance, err := decimal.NewFromString(result.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance %q for asset %s: %w", result.Balance, assetID, err)
	}

	return balance, nil
}

// GasInfo returns the current unstake gas recommendation.
func (c *RPCChainClient) GasInfo(ctx context.Context, assetID string) (*GasInfo, error) {
	result := new(gasInfoResult)

	params := map[string]interface{}{
		"asset_id": assetID,
	}

	if _, err := c.client.Call(ctx, "gas_info", params, result); err != nil {
		return nil, fmt.Errorf("failed to query gas info: %w", err)
	}

	gasPrice, err := decimal.NewFromString(result.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price %q: %w", result.GasPrice, err)
	}

	if gasPrice.IsNegative() {
		return nil, errors.New("chain returned negative gas price")
	}

	return &GasInfo{
		UnstakeGasLimit: result.UnstakeGasLimit,
		GasPrice:        gasPrice,
	}, nil
}
