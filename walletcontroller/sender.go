package walletcontroller

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/lumenlabs-io/stake-withdrawer/chainclient"
	"github.com/lumenlabs-io/stake-withdrawer/utils"
)

type sendUnstakeRequest struct {
	utils.Request[string]
	req *chainclient.UnstakeRequest
}

func newSendUnstakeRequest(req *chainclient.UnstakeRequest) sendUnstakeRequest {
	return sendUnstakeRequest{
		Request: utils.NewRequest[string](),
		req:     req,
	}
}

// WithdrawalSender is responsible for handing unstake requests to the wallet
// controller. It makes sure:
// - requests are accepted one at a time by a single goroutine
// - at most the configured number of broadcasts is in flight
// Every request results in exactly one broadcast attempt, failed requests
// are reported back to the caller and never retried here.
type WithdrawalSender struct {
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	quit      chan struct{}

	wc                     WalletController
	logger                 *logrus.Logger
	sendUnstakeRequestChan chan *sendUnstakeRequest
	s                      *semaphore.Weighted
}

func NewWithdrawalSender(
	wc WalletController,
	logger *logrus.Logger,
	maxConcurrentBroadcasts uint32,
) *WithdrawalSender {
	return &WithdrawalSender{
		quit:                   make(chan struct{}),
		wc:                     wc,
		logger:                 logger,
		sendUnstakeRequestChan: make(chan *sendUnstakeRequest),
		s:                      semaphore.NewWeighted(int64(maxConcurrentBroadcasts)),
	}
}

func (m *WithdrawalSender) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.handleSendToWallet()
	})
}

func (m *WithdrawalSender) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()
	})
}

func (m *WithdrawalSender) sendUnstakeAsync(req *sendUnstakeRequest) {
	// do not check the error, as the only way for Acquire to fail is a
	// cancelled context, and we pass a background context
	_ = m.s.Acquire(context.Background(), 1)
	m.wg.Add(1)
	go func() {
		defer m.s.Release(1)
		defer m.wg.Done()

		txID, err := m.wc.SignAndBroadcast(context.Background(), req.req)

		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"validator": req.req.Validator,
				"value":     req.req.Value,
				"err":       err,
			}).Error("Error while sending unstake request to wallet")

			req.ErrorChan() <- err
			return
		}

		req.ResultChan() <- txID
	}()
}

func (m *WithdrawalSender) handleSendToWallet() {
	defer m.wg.Done()
	for {
		select {
		case req := <-m.sendUnstakeRequestChan:
			m.sendUnstakeAsync(req)
		case <-m.quit:
			return
		}
	}
}

// SendUnstake submits the request and blocks until the wallet responds or
// the sender shuts down. The returned tx id may be empty, which the caller
// must treat as failure.
func (m *WithdrawalSender) SendUnstake(req *chainclient.UnstakeRequest) (string, error) {
	sendReq := newSendUnstakeRequest(req)

	return utils.SendRequestAndWaitForResponseOrQuit[string, *sendUnstakeRequest](
		&sendReq,
		m.sendUnstakeRequestChan,
		m.quit,
	)
}
