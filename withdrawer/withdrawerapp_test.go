package withdrawer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/metrics"
	"github.com/lumenlabs-io/stake-withdrawer/types"
	"github.com/lumenlabs-io/stake-withdrawer/utils"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
	"github.com/lumenlabs-io/stake-withdrawer/workflow"
)

type stubWalletController struct {
	mu sync.Mutex

	connected    bool
	supportsMemo bool
	txID         string
	broadcastErr error

	lastRequest *chainclient.UnstakeRequest
}

func (w *stubWalletController) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *stubWalletController) SupportsMemoEditing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.supportsMemo
}

func (w *stubWalletController) SignAndBroadcast(_ context.Context, req *chainclient.UnstakeRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastRequest = req
	if w.broadcastErr != nil {
		return "", w.broadcastErr
	}
	return w.txID, nil
}

func (w *stubWalletController) last() *chainclient.UnstakeRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRequest
}

type stubFeeEstimator struct {
	estimate *types.FeeEstimate
	err      error
}

func (e *stubFeeEstimator) Start() error { return nil }
func (e *stubFeeEstimator) Stop() error  { return nil }

func (e *stubFeeEstimator) Estimate(_ context.Context, _ *assets.Descriptor, _ decimal.Decimal) (*types.FeeEstimate, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.estimate, nil
}

type stubPriceSource struct {
	price decimal.Decimal
	err   error
}

func (s *stubPriceSource) PriceOf(_ context.Context, _ string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.price, nil
}

type recordingNavigator struct {
	mu    sync.Mutex
	steps []workflow.StepID
}

func (n *recordingNavigator) Advance(next workflow.StepID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.steps = append(n.steps, next)
}

func (n *recordingNavigator) recorded() []workflow.StepID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]workflow.StepID(nil), n.steps...)
}

type appTestHarness struct {
	app       *App
	cc        *stubChainClient
	wc        *stubWalletController
	estimator *stubFeeEstimator
	registry  assets.Registry
	state     *workflow.State
	navigator *recordingNavigator
}

// newAppTestHarness builds a fully stubbed app. Configure funcs run before
// the app starts, so they may mutate the stubs without synchronization.
func newAppTestHarness(t *testing.T, configure ...func(h *appTestHarness)) *appTestHarness {
	t.Helper()

	cfg := scfg.DefaultConfig()

	h := &appTestHarness{
		cc: &stubChainClient{
			gasInfo: &chainclient.GasInfo{
				UnstakeGasLimit: 200000,
				GasPrice:        decimal.RequireFromString("0.5"),
			},
			derivationParams: testDerivationParams,
			balance:          decimal.RequireFromString("1"),
		},
		wc: &stubWalletController{
			connected:    true,
			supportsMemo: true,
			txID:         "F00DBABE",
		},
		estimator: &stubFeeEstimator{
			estimate: &types.FeeEstimate{
				GasLimit: "200000",
				GasPrice: "0.5",
			},
		},
		registry:  assets.NewStaticRegistry(),
		state:     workflow.NewState(),
		navigator: &recordingNavigator{},
	}

	for _, c := range configure {
		c(h)
	}

	app, err := NewWithdrawerAppFromDeps(
		&cfg,
		testLogger(),
		h.cc,
		h.wc,
		h.estimator,
		&stubPriceSource{price: decimal.NewFromInt(10)},
		h.registry,
		h.state,
		h.navigator,
		metrics.NewWithdrawerMetrics(),
	)
	require.NoError(t, err)

	require.NoError(t, app.Start())
	t.Cleanup(func() {
		_ = app.Stop()
	})

	h.app = app
	return h
}

func (h *appTestHarness) waitForFeeEstimate(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.app.CurrentFeeEstimate() != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func testParams() *WithdrawalParams {
	return &WithdrawalParams{
		AccountID:    "account-1",
		Validator:    testValidator,
		CryptoAmount: "10",
	}
}

func TestConfirmWithdrawalSuccess(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.True(t, accepted)

	require.Equal(t, workflow.TxStatusSuccess, snapshot.TxStatus)
	require.Equal(t, "F00DBABE", snapshot.TxID)
	require.False(t, snapshot.Loading)
	require.Equal(t, "account-1", snapshot.AccountID)
	require.Equal(t, "10", snapshot.Withdraw.CryptoAmount)
	require.Equal(t, "100000", snapshot.Withdraw.EstimatedGasCrypto)

	require.Equal(t, []workflow.StepID{workflow.StepStatus}, h.navigator.recorded())

	req := h.wc.last()
	require.NotNil(t, req)
	require.Equal(t, "10000000", req.Value)
	require.Equal(t, "500000", req.Fee)
}

func TestConfirmWithdrawalBroadcastFailure(t *testing.T) {
	h := newAppTestHarness(t, func(h *appTestHarness) {
		h.wc.broadcastErr = fmt.Errorf("wallet rejected the transaction")
	})
	h.waitForFeeEstimate(t)

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.True(t, accepted)

	// Failure is a terminal status, the workflow still advances.
	require.Equal(t, workflow.TxStatusFailed, snapshot.TxStatus)
	require.Empty(t, snapshot.TxID)
	require.False(t, snapshot.Loading)
	require.Equal(t, []workflow.StepID{workflow.StepStatus}, h.navigator.recorded())
}

func TestConfirmWithdrawalFailureAfterSuccessDropsStaleTxID(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, workflow.TxStatusSuccess, snapshot.TxStatus)
	require.Equal(t, "F00DBABE", snapshot.TxID)

	h.wc.mu.Lock()
	h.wc.broadcastErr = fmt.Errorf("wallet rejected the transaction")
	h.wc.mu.Unlock()

	snapshot, accepted, err = h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.True(t, accepted)

	// The failed attempt must not render the previous attempt's tx id.
	require.Equal(t, workflow.TxStatusFailed, snapshot.TxStatus)
	require.Empty(t, snapshot.TxID)
}

func TestConfirmWithdrawalEmptyTxIDIsFailure(t *testing.T) {
	h := newAppTestHarness(t, func(h *appTestHarness) {
		h.wc.txID = ""
	})
	h.waitForFeeEstimate(t)

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.True(t, accepted)

	require.Equal(t, workflow.TxStatusFailed, snapshot.TxStatus)
	require.Empty(t, snapshot.TxID)
}

func TestConfirmWithdrawalBuildFailureStillAdvances(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	params := testParams()
	params.Validator = testAccountAddress

	snapshot, accepted, err := h.app.ConfirmWithdrawal(params)
	require.NoError(t, err)
	require.True(t, accepted)

	require.Equal(t, workflow.TxStatusFailed, snapshot.TxStatus)
	require.False(t, snapshot.Loading)
	require.Equal(t, []workflow.StepID{workflow.StepStatus}, h.navigator.recorded())

	// The wallet was never reached.
	require.Nil(t, h.wc.last())
}

func TestConfirmWithdrawalRejectedWithoutFeeEstimate(t *testing.T) {
	h := newAppTestHarness(t, func(h *appTestHarness) {
		h.estimator.err = fmt.Errorf("chain unavailable")
	})

	// The estimation loop keeps failing, so no estimate ever appears.
	require.Nil(t, h.app.CurrentFeeEstimate())

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.False(t, accepted)

	// A rejected attempt leaves the state untouched.
	require.Equal(t, workflow.Snapshot{}, snapshot)
	require.Empty(t, h.navigator.recorded())
	require.Nil(t, h.wc.last())
}

func TestConfirmWithdrawalRejectedWhenWalletDisconnected(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	h.wc.mu.Lock()
	h.wc.connected = false
	h.wc.mu.Unlock()

	snapshot, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.False(t, accepted)
	require.Equal(t, workflow.Snapshot{}, snapshot)
}

func TestConfirmWithdrawalRejectedWithoutDerivationParams(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	// Safe to mutate here, the chain client is only queried while handling
	// the command pushed below.
	h.cc.derivationParams = nil

	_, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.False(t, accepted)
}

func TestConfirmWithdrawalRejectedWhileLoading(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	h.state.SetLoading(true)

	_, accepted, err := h.app.ConfirmWithdrawal(testParams())
	require.NoError(t, err)
	require.False(t, accepted)
	require.Nil(t, h.wc.last())
}

func TestConfirmWithdrawalStripsUnsupportedMemo(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	h.wc.mu.Lock()
	h.wc.supportsMemo = false
	h.wc.mu.Unlock()

	params := testParams()
	params.Memo = "should be dropped"

	_, accepted, err := h.app.ConfirmWithdrawal(params)
	require.NoError(t, err)
	require.True(t, accepted)

	req := h.wc.last()
	require.NotNil(t, req)
	require.Empty(t, req.Memo)
}

func TestConfirmWithdrawalAfterStop(t *testing.T) {
	h := newAppTestHarness(t)
	require.NoError(t, h.app.Stop())

	_, _, err := h.app.ConfirmWithdrawal(testParams())
	require.ErrorIs(t, err, utils.ErrServiceShuttingDown)
}

func TestWithdrawnAssetUsesAppRegistry(t *testing.T) {
	custom := &assets.Descriptor{
		ID:        "cosmoshub/uatom",
		Symbol:    "STKATOM",
		Precision: 8,
		MarketID:  "cosmos",
	}

	h := newAppTestHarness(t, func(h *appTestHarness) {
		h.registry = assets.NewStaticRegistry(custom)
	})

	descriptor, err := h.app.WithdrawnAsset()
	require.NoError(t, err)
	require.Equal(t, "STKATOM", descriptor.Symbol)
	require.Equal(t, uint32(8), descriptor.Precision)
}

func TestGasBalance(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	info, err := h.app.GasBalance(context.Background(), "account-1")
	require.NoError(t, err)

	// Balance 1 ATOM, gas 200000 * 0.5 = 100000 uatom = 0.1 ATOM.
	require.True(t, info.HasSufficientBalance)
	require.Equal(t, "1", info.Balance)
	require.Equal(t, "100000", info.EstimatedGasBaseUnits)
}

func TestGasBalanceQueryFailureAssumesZero(t *testing.T) {
	h := newAppTestHarness(t)
	h.waitForFeeEstimate(t)

	h.cc.balanceErr = fmt.Errorf("balance query failed")

	info, err := h.app.GasBalance(context.Background(), "account-1")
	require.NoError(t, err)

	require.False(t, info.HasSufficientBalance)
	require.Empty(t, info.Balance)
}
