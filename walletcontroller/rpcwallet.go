package walletcontroller

import (
	"context"
	"fmt"
	"time"

	jsonrpcclient "github.com/cometbft/cometbft/rpc/jsonrpc/client"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
)

const statusQueryTimeout = 5 * time.Second

// RPCWalletController talks to a wallet daemon over JSON-RPC.
type RPCWalletController struct {
	client *jsonrpcclient.Client
	logger *logrus.Logger
}

var _ WalletController = (*RPCWalletController)(nil)

func NewRPCWalletController(remoteAddress string, logger *logrus.Logger) (*RPCWalletController, error) {
	client, err := jsonrpcclient.New(remoteAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet rpc client: %w", err)
	}

	return &RPCWalletController{
		client: client,
		logger: logger,
	}, nil
}

type walletStatusResult struct {
	Connected           bool `json:"connected"`
	SupportsMemoEditing bool `json:"supports_memo_editing"`
}

type signAndBroadcastResult struct {
	TxID string `json:"tx_id"`
}

func (c *RPCWalletController) status() (*walletStatusResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), statusQueryTimeout)
	defer cancel()

	result := new(walletStatusResult)
	if _, err := c.client.Call(ctx, "status", map[string]interface{}{}, result); err != nil {
		return nil, fmt.Errorf("failed to query wallet status: %w", err)
	}

	return result, nil
}

// IsConnected reports whether the wallet daemon has a connected wallet. A
// failed status query counts as not connected.
func (c *RPCWalletController) IsConnected() bool {
	status, err := c.status()

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"err": err,
		}).Debug("Wallet status query failed. Treating wallet as disconnected")
		return false
	}

	return status.Connected
}

// SupportsMemoEditing reports the memo editing capability of the connected
// wallet.
func (c *RPCWalletController) SupportsMemoEditing() bool {
	status, err := c.status()

	if err != nil {
		return false
	}

	return status.SupportsMemoEditing
}

// SignAndBroadcast submits the request for signing and broadcast. The tx id
// in the response may be empty if the wallet accepted the request but the
// network rejected the transaction.
func (c *RPCWalletController) SignAndBroadcast(ctx context.Context, req *chainclient.UnstakeRequest) (string, error) {
	result := new(signAndBroadcastResult)

	params := map[string]interface{}{
		"request": req,
		"action":  "unstake",
	}

	if _, err := c.client.Call(ctx, "sign_and_broadcast", params, result); err != nil {
		return "", fmt.Errorf("failed to sign and broadcast unstake request: %w", err)
	}

	return result.TxID, nil
}
