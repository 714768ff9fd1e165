// Package workflow owns the shared state object which the withdrawal steps
// pass between each other. The state has exactly one writer, the withdrawer
// app, every other step only takes snapshot reads.
package workflow

import (
	"sync"
)

// TxStatus is the terminal status of a submitted withdrawal.
type TxStatus string

const (
	// TxStatusUnset means no submission has finished yet.
	TxStatusUnset TxStatus = ""
	// TxStatusSuccess means the broadcast returned a non empty tx id.
	TxStatusSuccess TxStatus = "success"
	// TxStatusFailed means the broadcast failed or returned an empty tx id.
	TxStatusFailed TxStatus = "failed"
)

// WithdrawValues are the amounts recorded for the current withdrawal.
type WithdrawValues struct {
	// CryptoAmount is the human readable amount being withdrawn.
	CryptoAmount string
	// EstimatedGasCrypto is the estimated gas cost in fee asset base units.
	EstimatedGasCrypto string
}

// State is the shared, externally observable workflow state. It is created
// by the step framework before the confirmation step runs and survives past
// it so that the status step can render the outcome.
type State struct {
	mu sync.RWMutex

	loading   bool
	withdraw  WithdrawValues
	txStatus  TxStatus
	txID      string
	accountID string
}

// Snapshot is an immutable copy of the workflow state.
type Snapshot struct {
	Loading   bool
	Withdraw  WithdrawValues
	TxStatus  TxStatus
	TxID      string
	AccountID string
}

func NewState() *State {
	return &State{}
}

// Snapshot returns a consistent copy of all fields. Readers must treat it as
// an eventually consistent view, the single writer may move on at any time.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Loading:   s.loading,
		Withdraw:  s.withdraw,
		TxStatus:  s.txStatus,
		TxID:      s.txID,
		AccountID: s.accountID,
	}
}

// Loading reports whether a submission is currently in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// SetLoading marks the submission in flight state. Loading is true for the
// whole duration between submit start and the terminal status assignment.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = loading
}

// RecordWithdrawal captures the values of the attempt being submitted. Any
// outcome of a previous attempt is cleared, so a snapshot never mixes the
// current attempt's values with a stale tx id or status.
func (s *State) RecordWithdrawal(accountID string, values WithdrawValues) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountID = accountID
	s.withdraw = values
	s.txStatus = TxStatusUnset
	s.txID = ""
}

// RecordOutcome records the terminal status of a submission. The status is
// success if and only if the broadcast returned a non empty tx id.
func (s *State) RecordOutcome(txID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txID == "" {
		s.txStatus = TxStatusFailed
		s.txID = ""
		return
	}

	s.txStatus = TxStatusSuccess
	s.txID = txID
}
