package withdrawer

import (
	"github.com/sirupsen/logrus"
)

// WithdrawalEvent is implemented by every command and event flowing through
// the app event loops.
type WithdrawalEvent interface {
	// EventID identifies which account the event concerns.
	EventID() string
	EventDesc() string
}

var _ WithdrawalEvent = (*withdrawalRequestCmd)(nil)
var _ WithdrawalEvent = (*criticalErrorEvent)(nil)

type criticalErrorEvent struct {
	accountID         string
	err               error
	additionalContext string
}

func (e *criticalErrorEvent) EventID() string {
	return e.accountID
}

func (e *criticalErrorEvent) EventDesc() string {
	return "CRITICAL_ERROR"
}

func (app *App) logWithdrawalEventReceived(event WithdrawalEvent) {
	app.logger.WithFields(logrus.Fields{
		"eventId": event.EventID(),
		"event":   event.EventDesc(),
	}).Debug("Received withdrawal event")
}

func (app *App) logWithdrawalEventProcessed(event WithdrawalEvent) {
	app.logger.WithFields(logrus.Fields{
		"eventId": event.EventID(),
		"event":   event.EventDesc(),
	}).Debug("Withdrawal event processed")
}
