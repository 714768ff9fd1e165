package withdrawer

// WithdrawalParams carry the inputs confirmed by the user in the preceding
// workflow step. They are read only from the confirmation step onward.
type WithdrawalParams struct {
	// AccountID identifies the withdrawing account.
	AccountID string
	// Validator is the operator address the stake is withdrawn from.
	Validator string
	// CryptoAmount is the human readable amount of the withdrawn asset.
	CryptoAmount string
	// Memo is an optional transaction memo. Ignored when the connected
	// wallet does not support memo editing.
	Memo string
}

type withdrawalRequestCmd struct {
	params *WithdrawalParams
	// accepted is set by the event loop before doneChan is closed.
	accepted bool
	doneChan chan struct{}
}

func newWithdrawalRequestCmd(params *WithdrawalParams) *withdrawalRequestCmd {
	return &withdrawalRequestCmd{
		params:   params,
		doneChan: make(chan struct{}),
	}
}

func (cmd *withdrawalRequestCmd) EventID() string {
	return cmd.params.AccountID
}

func (cmd *withdrawalRequestCmd) EventDesc() string {
	return "WITHDRAWAL_REQUESTED_CMD"
}
