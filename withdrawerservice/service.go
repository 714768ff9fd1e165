package withdrawerservice

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/cometbft/cometbft/libs/log"
	rpc "github.com/cometbft/cometbft/rpc/jsonrpc/server"
	rpctypes "github.com/cometbft/cometbft/rpc/jsonrpc/types"
	"github.com/sirupsen/logrus"

	"github.com/lumenlabs-io/stake-withdrawer/assets"
	wdr "github.com/lumenlabs-io/stake-withdrawer/withdrawer"
	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
)

const (
	// EnvRouteAuthUser and EnvRouteAuthPwd enable basic auth on all routes
	// when both are set.
	EnvRouteAuthUser = "WITHDRAWER_USERNAME"
	EnvRouteAuthPwd  = "WITHDRAWER_PASSWORD"
)

// RoutesMap maps route names to their RPC handlers.
type RoutesMap map[string]*rpc.RPCFunc

// WithdrawerService exposes the withdrawal workflow over JSON-RPC.
type WithdrawerService struct {
	started int32

	config     *scfg.Config
	withdrawer *wdr.App
	logger     *logrus.Logger
}

// NewWithdrawerService creates a new withdrawer service instance.
func NewWithdrawerService(
	c *scfg.Config,
	w *wdr.App,
	l *logrus.Logger,
) *WithdrawerService {
	return &WithdrawerService{
		config:     c,
		withdrawer: w,
		logger:     l,
	}
}

// health returns a health check response.
func (s *WithdrawerService) health(_ *rpctypes.Context) (*ResultHealth, error) {
	return &ResultHealth{}, nil
}

// withdraw confirms a withdrawal and blocks until the attempt finished.
func (s *WithdrawerService) withdraw(_ *rpctypes.Context,
	accountID string,
	validator string,
	amount string,
	memo string,
) (*ResultWithdraw, error) {
	if accountID == "" {
		return nil, fmt.Errorf("accountID must not be empty")
	}

	if validator == "" {
		validator = s.config.WithdrawerConfig.DefaultValidator
	}

	snapshot, accepted, err := s.withdrawer.ConfirmWithdrawal(&wdr.WithdrawalParams{
		AccountID:    accountID,
		Validator:    validator,
		CryptoAmount: amount,
		Memo:         memo,
	})
	if err != nil {
		return nil, err
	}

	if !accepted {
		return &ResultWithdraw{Accepted: false}, nil
	}

	return &ResultWithdraw{
		Accepted: true,
		TxStatus: string(snapshot.TxStatus),
		TxID:     snapshot.TxID,
	}, nil
}

// withdrawalStatus returns the current workflow state.
func (s *WithdrawerService) withdrawalStatus(_ *rpctypes.Context) (*WithdrawalStatusResponse, error) {
	snapshot := s.withdrawer.WithdrawalStatus()

	return &WithdrawalStatusResponse{
		Loading:            snapshot.Loading,
		AccountID:          snapshot.AccountID,
		CryptoAmount:       snapshot.Withdraw.CryptoAmount,
		EstimatedGasCrypto: snapshot.Withdraw.EstimatedGasCrypto,
		TxStatus:           string(snapshot.TxStatus),
		TxID:               snapshot.TxID,
	}, nil
}

// feeEstimate returns the latest successful fee estimate.
func (s *WithdrawerService) feeEstimate(_ *rpctypes.Context) (*FeeEstimateResponse, error) {
	estimate := s.withdrawer.CurrentFeeEstimate()
	if estimate == nil {
		return &FeeEstimateResponse{Found: false}, nil
	}

	return &FeeEstimateResponse{
		Found:    true,
		GasLimit: estimate.GasLimit,
		GasPrice: estimate.GasPrice,
	}, nil
}

// gasBalance reports whether the account can pay for the estimated gas.
func (s *WithdrawerService) gasBalance(ctx *rpctypes.Context, accountID string) (*GasBalanceResponse, error) {
	if accountID == "" {
		return nil, fmt.Errorf("accountID must not be empty")
	}

	info, err := s.withdrawer.GasBalance(ctx.Context(), accountID)
	if err != nil {
		return nil, err
	}

	return &GasBalanceResponse{
		HasSufficientBalance:  info.HasSufficientBalance,
		Balance:               info.Balance,
		EstimatedGasBaseUnits: info.EstimatedGasBaseUnits,
	}, nil
}

// assetInfo describes the configured withdrawn asset.
func (s *WithdrawerService) assetInfo(_ *rpctypes.Context) (*AssetInfoResponse, error) {
	descriptor, err := s.withdrawer.WithdrawnAsset()
	if err != nil {
		return nil, err
	}

	return &AssetInfoResponse{
		AssetID:       descriptor.ID,
		Symbol:        descriptor.Symbol,
		Precision:     descriptor.Precision,
		Icon:          descriptor.Icon,
		UnbondingDays: assets.UnbondingDays(descriptor.ID),
	}, nil
}

// GetRoutes returns the routes this service handles.
func (s *WithdrawerService) GetRoutes() RoutesMap {
	return RoutesMap{
		"health":            rpc.NewRPCFunc(s.health, ""),
		"withdraw":          rpc.NewRPCFunc(s.withdraw, "accountID,validator,amount,memo"),
		"withdrawal_status": rpc.NewRPCFunc(s.withdrawalStatus, ""),
		"fee_estimate":      rpc.NewRPCFunc(s.feeEstimate, ""),
		"gas_balance":       rpc.NewRPCFunc(s.gasBalance, "accountID"),
		"asset_info":        rpc.NewRPCFunc(s.assetInfo, ""),
	}
}

// BasicAuthMiddleware protects all routes with HTTP basic auth. A request
// with missing or wrong credentials is rejected before reaching the RPC
// dispatcher.
func BasicAuthMiddleware(expUsername, expPwd string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pwd, ok := r.BasicAuth()

		userOk := subtle.ConstantTimeCompare([]byte(user), []byte(expUsername)) == 1
		pwdOk := subtle.ConstantTimeCompare([]byte(pwd), []byte(expPwd)) == 1

		if !ok || !userOk || !pwdOk {
			w.Header().Set("WWW-Authenticate", `Basic realm="withdrawerd"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RunUntilShutdown starts the withdrawer app and the JSON-RPC listeners and
// blocks until the context is canceled.
func (s *WithdrawerService) RunUntilShutdown(ctx context.Context, expUser, expPwd string) error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return nil
	}

	defer func() {
		s.logger.Info("Shutdown complete")
	}()

	mkErr := func(format string, args ...interface{}) error {
		logFormat := strings.ReplaceAll(format, "%w", "%v")
		s.logger.Errorf("Shutting down because error in main "+
			"method: "+logFormat, args...)
		return fmt.Errorf(format, args...)
	}

	//nolint:contextcheck
	if err := s.withdrawer.Start(); err != nil {
		return mkErr("error starting withdrawer: %w", err)
	}

	defer func() {
		if err := s.withdrawer.Stop(); err != nil {
			s.logger.WithError(err).Info("withdrawer stop with error")
		}
		s.logger.Info("withdrawer stop complete")
	}()

	routes := s.GetRoutes()
	rpcLogger := log.NewTMLogger(s.logger.Writer())

	serverConfig := rpc.DefaultConfig()

	listeners := make([]net.Listener, len(s.config.RPCListeners))
	for i, listenAddr := range s.config.RPCListeners {
		listenAddressStr := listenAddr.Network() + "://" + listenAddr.String()
		mux := http.NewServeMux()
		rpc.RegisterRPCFuncs(mux, routes, rpcLogger)

		var handler http.Handler = mux
		if expUser != "" || expPwd != "" {
			handler = BasicAuthMiddleware(expUser, expPwd, mux)
		}

		listener, err := rpc.Listen(
			listenAddressStr,
			s.config.JSONRPCServerConfig.MaxOpenConnections,
		)

		if err != nil {
			return mkErr("unable to listen on %s: %v",
				listenAddressStr, err)
		}

		defer func() {
			if err := listener.Close(); err != nil {
				s.logger.WithError(err).Error("Error closing listener")
			}
		}()

		go func() {
			s.logger.Debug("Starting Json RPC HTTP server ", "address: ", listenAddressStr)

			if err := rpc.Serve(
				listener,
				handler,
				rpcLogger,
				serverConfig,
			); err != nil {
				s.logger.WithError(err).Error("problem at JSON RPC HTTP server")
			}
			s.logger.Info("Json RPC HTTP server stopped ")
		}()

		listeners[i] = listener
	}

	s.logger.Info("Withdrawer Service fully started")

	<-ctx.Done()
	s.logger.Info("Received shutdown signal. Stopping...")

	return nil
}
