package client

import (
	"context"

	jsonrpcclient "github.com/cometbft/cometbft/rpc/jsonrpc/client"

	service "github.com/lumenlabs-io/stake-withdrawer/withdrawerservice"
)

type WithdrawerServiceJSONRPCClient struct {
	client *jsonrpcclient.Client
}

// TODO Add some kind of timeout config
func NewWithdrawerServiceJSONRPCClient(remoteAddress string) (*WithdrawerServiceJSONRPCClient, error) {
	client, err := jsonrpcclient.New(remoteAddress)
	if err != nil {
		return nil, err
	}

	return &WithdrawerServiceJSONRPCClient{
		client: client,
	}, nil
}

func (c *WithdrawerServiceJSONRPCClient) Health(ctx context.Context) (*service.ResultHealth, error) {
	result := new(service.ResultHealth)
	_, err := c.client.Call(ctx, "health", map[string]interface{}{}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *WithdrawerServiceJSONRPCClient) Withdraw(
	ctx context.Context,
	accountID string,
	validator string,
	amount string,
	memo string,
) (*service.ResultWithdraw, error) {
	result := new(service.ResultWithdraw)

	params := make(map[string]interface{})
	params["accountID"] = accountID
	params["validator"] = validator
	params["amount"] = amount
	params["memo"] = memo

	_, err := c.client.Call(ctx, "withdraw", params, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *WithdrawerServiceJSONRPCClient) WithdrawalStatus(ctx context.Context) (*service.WithdrawalStatusResponse, error) {
	result := new(service.WithdrawalStatusResponse)
	_, err := c.client.Call(ctx, "withdrawal_status", map[string]interface{}{}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *WithdrawerServiceJSONRPCClient) FeeEstimate(ctx context.Context) (*service.FeeEstimateResponse, error) {
	result := new(service.FeeEstimateResponse)
	_, err := c.client.Call(ctx, "fee_estimate", map[string]interface{}{}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *WithdrawerServiceJSONRPCClient) GasBalance(ctx context.Context, accountID string) (*service.GasBalanceResponse, error) {
	result := new(service.GasBalanceResponse)

	params := make(map[string]interface{})
	params["accountID"] = accountID

	_, err := c.client.Call(ctx, "gas_balance", params, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *WithdrawerServiceJSONRPCClient) AssetInfo(ctx context.Context) (*service.AssetInfoResponse, error) {
	result := new(service.AssetInfoResponse)
	_, err := c.client.Call(ctx, "asset_info", map[string]interface{}{}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
