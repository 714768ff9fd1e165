package withdrawerservice

// ResultHealth represents the empty response of the health RPC.
type ResultHealth struct{}

// ResultWithdraw is the outcome of a withdrawal confirmation.
type ResultWithdraw struct {
	// Accepted is false when the submission guard dropped the attempt.
	Accepted bool `json:"accepted"`
	// TxStatus is "success" or "failed" once a submission has finished,
	// empty before the first accepted attempt.
	TxStatus string `json:"tx_status"`
	// TxID is the broadcast transaction id, set only on success.
	TxID string `json:"tx_id,omitempty"`
}

// WithdrawalStatusResponse is a snapshot of the withdrawal workflow state.
type WithdrawalStatusResponse struct {
	Loading            bool   `json:"loading"`
	AccountID          string `json:"account_id,omitempty"`
	CryptoAmount       string `json:"crypto_amount,omitempty"`
	EstimatedGasCrypto string `json:"estimated_gas_crypto,omitempty"`
	TxStatus           string `json:"tx_status"`
	TxID               string `json:"tx_id,omitempty"`
}

// FeeEstimateResponse is the current fee estimate of the daemon.
type FeeEstimateResponse struct {
	// Found is false when estimation has not yet succeeded or last failed.
	Found    bool   `json:"found"`
	GasLimit string `json:"gas_limit,omitempty"`
	GasPrice string `json:"gas_price,omitempty"`
}

// GasBalanceResponse reports whether an account can pay for gas.
type GasBalanceResponse struct {
	HasSufficientBalance  bool   `json:"has_sufficient_balance"`
	Balance               string `json:"balance,omitempty"`
	EstimatedGasBaseUnits string `json:"estimated_gas_base_units,omitempty"`
}

// AssetInfoResponse describes the configured withdrawn asset.
type AssetInfoResponse struct {
	AssetID       string `json:"asset_id"`
	Symbol        string `json:"symbol"`
	Precision     uint32 `json:"precision"`
	Icon          string `json:"icon,omitempty"`
	UnbondingDays uint32 `json:"unbonding_days"`
}
