// Package walletcontroller defines the wallet collaborator which signs and
// broadcasts withdrawal transactions, and the sender which serializes
// submissions through it.
package walletcontroller

import (
	"context"

	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
)

// WalletController is the signing and broadcast collaborator. The wallet
// owns keys and the chain wire format, the withdrawer only hands it a built
// request and receives a transaction identifier.
type WalletController interface {
	// IsConnected reports whether a wallet is connected and able to sign.
	IsConnected() bool
	// SupportsMemoEditing reports whether the connected wallet lets the
	// user attach a transaction memo.
	SupportsMemoEditing() bool
	// SignAndBroadcast signs the request and broadcasts it. It returns the
	// transaction identifier, which may be empty on a failed broadcast.
	// Exactly one broadcast attempt is made per invocation, there is no
	// internal retry.
	SignAndBroadcast(ctx context.Context, req *chainclient.UnstakeRequest) (string, error)
}
