package withdrawer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/metrics"
	"github.com/lumenlabs-io/stake-withdrawer/types"
	"github.com/lumenlabs-io/stake-withdrawer/utils"
	"github.com/lumenlabs-io/stake-withdrawer/walletcontroller"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
	"github.com/lumenlabs-io/stake-withdrawer/workflow"
)

// GasBalanceInfo is the result of a gas balance check.
type GasBalanceInfo struct {
	// HasSufficientBalance reports whether the fee asset balance covers the
	// currently estimated gas cost.
	HasSufficientBalance bool
	// Balance is the human readable fee asset balance. Empty when the
	// balance query failed and a zero balance was assumed.
	Balance string
	// EstimatedGasBaseUnits is the estimated gas cost in fee asset base
	// units. Empty when no fee estimate is available.
	EstimatedGasBaseUnits string
}

// App drives the confirmation and broadcast step of the unstaking workflow.
// All submissions are serialized through a single event loop, which makes
// the loop the only writer of the workflow state.
type App struct {
	startOnce sync.Once
	stopOnce  sync.Once

	wg   sync.WaitGroup
	quit chan struct{}

	config       *scfg.Config
	logger       *logrus.Logger
	chainClient  chainclient.ChainClient
	wc           walletcontroller.WalletController
	sender       *walletcontroller.WithdrawalSender
	feeEstimator FeeEstimator
	priceSource  marketPriceSource
	registry     assets.Registry
	state        *workflow.State
	navigator    workflow.Navigator
	m            *metrics.WithdrawerMetrics

	withdrawalRequestedCmdChan chan *withdrawalRequestCmd
	criticalErrorEvChan        chan *criticalErrorEvent

	// currentFeeEstimate holds the latest successful estimate, nil after an
	// estimation failure. Written only by the estimation loop.
	currentFeeEstimate atomic.Pointer[types.FeeEstimate]
}

// marketPriceSource mirrors marketdata.PriceSource without importing the
// package into every test.
type marketPriceSource interface {
	PriceOf(ctx context.Context, marketID string) (decimal.Decimal, error)
}

// NewWithdrawerAppFromConfig wires all collaborators from configuration and
// returns the assembled app.
func NewWithdrawerAppFromConfig(
	config *scfg.Config,
	logger *logrus.Logger,
	m *metrics.WithdrawerMetrics,
) (*App, error) {
	cc, err := chainclient.NewRPCChainClient(config.ChainRPCConfig.Host, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	wc, err := walletcontroller.NewRPCWalletController(config.WalletRPCConfig.Host, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet controller: %w", err)
	}

	var feeEstimator FeeEstimator
	switch config.WithdrawerConfig.EstimationMode() {
	case types.StaticFeeEstimation:
		gasPrice, err := decimal.NewFromString(config.WithdrawerConfig.StaticGasPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid static gas price: %w", err)
		}
		feeEstimator = NewStaticFeeEstimator(config.WithdrawerConfig.StaticGasLimit, gasPrice)
	case types.DynamicFeeEstimation:
		feeEstimator, err = NewDynamicFeeEstimator(config.WithdrawerConfig, cc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamic fee estimator: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown fee estimation mode: %d", config.WithdrawerConfig.EstimationMode())
	}

	priceSource := NewPriceSourceFromConfig(config)

	return NewWithdrawerAppFromDeps(
		config,
		logger,
		cc,
		wc,
		feeEstimator,
		priceSource,
		assets.NewStaticRegistry(),
		workflow.NewState(),
		workflow.NewLoggingNavigator(logger),
		m,
	)
}

// NewWithdrawerAppFromDeps assembles the app from already built
// collaborators. Used directly in tests.
func NewWithdrawerAppFromDeps(
	config *scfg.Config,
	logger *logrus.Logger,
	chainClient chainclient.ChainClient,
	wc walletcontroller.WalletController,
	feeEstimator FeeEstimator,
	priceSource marketPriceSource,
	registry assets.Registry,
	state *workflow.State,
	navigator workflow.Navigator,
	m *metrics.WithdrawerMetrics,
) (*App, error) {
	if _, err := registry.Resolve(config.WithdrawerConfig.AssetID); err != nil {
		return nil, fmt.Errorf("cannot resolve configured asset: %w", err)
	}

	if _, err := registry.Resolve(config.WithdrawerConfig.FeeAsset()); err != nil {
		return nil, fmt.Errorf("cannot resolve configured fee asset: %w", err)
	}

	return &App{
		quit:         make(chan struct{}),
		config:       config,
		logger:       logger,
		chainClient:  chainClient,
		wc:           wc,
		sender:       walletcontroller.NewWithdrawalSender(wc, logger, config.WithdrawerConfig.MaxConcurrentBroadcasts),
		feeEstimator: feeEstimator,
		priceSource:  priceSource,
		registry:     registry,
		state:        state,
		navigator:    navigator,
		m:            m,

		withdrawalRequestedCmdChan: make(chan *withdrawalRequestCmd),
		criticalErrorEvChan:        make(chan *criticalErrorEvent),
	}, nil
}

// Start launches the event loops. Safe to call more than once.
func (app *App) Start() error {
	var startErr error
	app.startOnce.Do(func() {
		app.logger.Info("Starting WithdrawerApp")

		if err := app.feeEstimator.Start(); err != nil {
			startErr = fmt.Errorf("failed to start fee estimator: %w", err)
			return
		}

		app.sender.Start()

		app.wg.Add(3)
		go app.handleFeeEstimation()
		go app.handleWithdrawalCommands()
		go app.handleWithdrawalEvents()
	})

	return startErr
}

// Stop signals the event loops to exit and waits for them.
func (app *App) Stop() error {
	var stopErr error
	app.stopOnce.Do(func() {
		app.logger.Info("Stopping WithdrawerApp")

		close(app.quit)
		app.wg.Wait()

		app.sender.Stop()

		if err := app.feeEstimator.Stop(); err != nil {
			stopErr = err
		}
	})

	return stopErr
}

func (app *App) reportCriticalError(
	accountID string,
	err error,
	additionalContext string,
) {
	ev := &criticalErrorEvent{
		accountID:         accountID,
		err:               err,
		additionalContext: additionalContext,
	}

	utils.PushOrQuit[*criticalErrorEvent](
		app.criticalErrorEvChan,
		ev,
		app.quit,
	)
}

// refreshFeeEstimate runs one estimation round. On any failure the current
// estimate is cleared, which keeps submission blocked until the next
// successful round.
func (app *App) refreshFeeEstimate() {
	asset, err := app.registry.Resolve(app.config.WithdrawerConfig.AssetID)
	if err != nil {
		app.failFeeEstimation(err, "failed to resolve withdrawn asset")
		return
	}

	feeAsset, err := app.registry.Resolve(app.config.WithdrawerConfig.FeeAsset())
	if err != nil {
		app.failFeeEstimation(err, "failed to resolve fee asset")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.config.ChainRPCConfig.Timeout)
	defer cancel()

	fiatPrice, err := app.priceSource.PriceOf(ctx, feeAsset.MarketID)
	if err != nil {
		app.failFeeEstimation(err, "failed to fetch fee asset fiat price")
		return
	}

	estimate, err := app.feeEstimator.Estimate(ctx, asset, fiatPrice)
	if err != nil {
		app.failFeeEstimation(err, "fee estimation failed")
		return
	}

	app.currentFeeEstimate.Store(estimate)

	app.m.CurrentFiatPrice.Set(fiatPrice.InexactFloat64())
	if limit, err := decimal.NewFromString(estimate.GasLimit); err == nil {
		app.m.CurrentGasLimit.Set(limit.InexactFloat64())
	}
	if price, err := decimal.NewFromString(estimate.GasPrice); err == nil {
		app.m.CurrentGasPrice.Set(price.InexactFloat64())
	}

	app.logger.WithFields(logrus.Fields{
		"assetId":   asset.ID,
		"gasLimit":  estimate.GasLimit,
		"gasPrice":  estimate.GasPrice,
		"fiatPrice": fiatPrice,
	}).Debug("Refreshed fee estimate")
}

func (app *App) failFeeEstimation(err error, msg string) {
	app.currentFeeEstimate.Store(nil)
	app.m.FeeEstimationErrorsTotal.Inc()
	app.logger.WithError(err).Error(msg)
}

func (app *App) handleFeeEstimation() {
	defer app.wg.Done()

	// Produce an estimate right away so the first withdrawal does not need
	// to wait a full interval.
	app.refreshFeeEstimate()

	ticker := time.NewTicker(app.config.WithdrawerConfig.FeeRecalcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.refreshFeeEstimate()
		case <-app.quit:
			return
		}
	}
}

func (app *App) handleWithdrawalCommands() {
	defer app.wg.Done()

	for {
		select {
		case cmd := <-app.withdrawalRequestedCmdChan:
			app.logWithdrawalEventReceived(cmd)
			app.handleWithdrawalRequest(cmd)
			app.logWithdrawalEventProcessed(cmd)
		case <-app.quit:
			return
		}
	}
}

func (app *App) handleWithdrawalEvents() {
	defer app.wg.Done()

	for {
		select {
		case ev := <-app.criticalErrorEvChan:
			app.logWithdrawalEventReceived(ev)
			app.logger.WithFields(logrus.Fields{
				"accountId": ev.accountID,
				"context":   ev.additionalContext,
			}).WithError(ev.err).Error("Critical error in withdrawal flow")
			app.logWithdrawalEventProcessed(ev)
		case <-app.quit:
			return
		}
	}
}

// checkSubmitGuard re-evaluates the submission preconditions. A nil error
// with a nil estimate never happens, a failing guard returns the reason the
// attempt is dropped.
func (app *App) checkSubmitGuard(params *WithdrawalParams) (*types.FeeEstimate, *chainclient.DerivationParams, error) {
	if app.state.Loading() {
		return nil, nil, fmt.Errorf("a submission is already in flight")
	}

	feeEstimate := app.currentFeeEstimate.Load()
	if feeEstimate == nil {
		return nil, nil, ErrNoFeeEstimate
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.config.ChainRPCConfig.Timeout)
	defer cancel()

	derivationParams, err := app.chainClient.AccountDerivationParams(ctx, params.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve derivation params: %w", err)
	}

	if !app.wc.IsConnected() {
		return nil, nil, fmt.Errorf("wallet is not connected")
	}

	return feeEstimate, derivationParams, nil
}

// handleWithdrawalRequest performs one submission attempt. Rejected attempts
// leave the workflow state untouched. Accepted attempts hold the loading
// flag for their whole duration and always advance the workflow to the
// status step, regardless of the broadcast outcome.
func (app *App) handleWithdrawalRequest(cmd *withdrawalRequestCmd) {
	defer close(cmd.doneChan)

	params := cmd.params

	feeEstimate, derivationParams, err := app.checkSubmitGuard(params)
	if err != nil {
		app.m.WithdrawalsRejectedTotal.Inc()
		app.logger.WithFields(logrus.Fields{
			"accountId": params.AccountID,
		}).WithError(err).Debug("Withdrawal attempt rejected")
		return
	}

	cmd.accepted = true

	app.state.SetLoading(true)
	app.state.RecordWithdrawal(params.AccountID, workflow.WithdrawValues{
		CryptoAmount:       params.CryptoAmount,
		EstimatedGasCrypto: feeEstimate.GasCostBaseUnits().Round(0).String(),
	})

	defer func() {
		app.state.SetLoading(false)
		app.navigator.Advance(workflow.StepStatus)
	}()

	asset, err := app.registry.Resolve(app.config.WithdrawerConfig.AssetID)
	if err != nil {
		app.recordFailedBroadcast(params, err)
		return
	}

	memo := params.Memo
	if memo != "" && !app.wc.SupportsMemoEditing() {
		memo = ""
	}

	req, err := buildUnstakeRequest(
		asset,
		derivationParams,
		params.Validator,
		feeEstimate,
		params.CryptoAmount,
		memo,
	)
	if err != nil {
		app.recordFailedBroadcast(params, err)
		return
	}

	txID, err := app.sender.SendUnstake(req)
	if err != nil {
		app.recordFailedBroadcast(params, err)
		return
	}

	if txID == "" {
		app.recordFailedBroadcast(params, ErrEmptyTxID)
		return
	}

	app.state.RecordOutcome(txID)
	app.m.WithdrawalsSuccessTotal.Inc()

	app.logger.WithFields(logrus.Fields{
		"accountId": params.AccountID,
		"txId":      txID,
		"amount":    params.CryptoAmount,
	}).Info("Withdrawal transaction broadcast")
}

func (app *App) recordFailedBroadcast(params *WithdrawalParams, err error) {
	app.state.RecordOutcome("")
	app.m.WithdrawalsFailedTotal.Inc()
	app.reportCriticalError(params.AccountID, err, "failed to submit withdrawal")
}

// ConfirmWithdrawal requests a withdrawal submission and blocks until the
// attempt has been fully processed. The returned snapshot reflects the state
// after the attempt. accepted is false when the guard dropped the attempt,
// in which case the state is unchanged. Submissions are never retried.
func (app *App) ConfirmWithdrawal(params *WithdrawalParams) (workflow.Snapshot, bool, error) {
	select {
	case <-app.quit:
		return workflow.Snapshot{}, false, utils.ErrServiceShuttingDown
	default:
	}

	app.m.WithdrawalAttemptsTotal.Inc()

	cmd := newWithdrawalRequestCmd(params)
	utils.PushOrQuit[*withdrawalRequestCmd](
		app.withdrawalRequestedCmdChan,
		cmd,
		app.quit,
	)

	select {
	case <-cmd.doneChan:
	case <-app.quit:
		return workflow.Snapshot{}, false, utils.ErrServiceShuttingDown
	}

	return app.state.Snapshot(), cmd.accepted, nil
}

// WithdrawalStatus returns the current workflow state snapshot.
func (app *App) WithdrawalStatus() workflow.Snapshot {
	return app.state.Snapshot()
}

// CurrentFeeEstimate returns the latest successful fee estimate, or nil when
// estimation has not yet succeeded or last failed.
func (app *App) CurrentFeeEstimate() *types.FeeEstimate {
	return app.currentFeeEstimate.Load()
}

// WithdrawnAsset resolves the configured withdrawn asset from the app's
// registry, including any extra descriptors the app was wired with.
func (app *App) WithdrawnAsset() (*assets.Descriptor, error) {
	return app.registry.Resolve(app.config.WithdrawerConfig.AssetID)
}

// GasBalance checks whether the account's fee asset balance covers the
// estimated gas cost. A failing balance query is treated as a zero balance
// rather than an error.
func (app *App) GasBalance(ctx context.Context, accountID string) (*GasBalanceInfo, error) {
	feeAsset, err := app.registry.Resolve(app.config.WithdrawerConfig.FeeAsset())
	if err != nil {
		return nil, fmt.Errorf("cannot resolve fee asset: %w", err)
	}

	balance := ""
	if b, err := app.chainClient.Balance(ctx, feeAsset.ID, accountID); err == nil {
		balance = b.String()
	} else {
		app.logger.WithFields(logrus.Fields{
			"accountId": accountID,
			"assetId":   feeAsset.ID,
		}).WithError(err).Warn("Balance query failed. Assuming zero balance")
	}

	gasCost := ""
	if estimate := app.currentFeeEstimate.Load(); estimate != nil {
		gasCost = estimate.GasCostBaseUnits().Round(0).String()
	}

	return &GasBalanceInfo{
		HasSufficientBalance:  HasSufficientGasBalance(balance, gasCost, feeAsset.Precision),
		Balance:               balance,
		EstimatedGasBaseUnits: gasCost,
	}, nil
}
