package workflow

import (
	"github.com/sirupsen/logrus"
)

// StepID identifies a step of the withdrawal workflow.
type StepID string

const (
	// StepAmount is the amount selection step preceding confirmation.
	StepAmount StepID = "amount"
	// StepConfirm is the confirmation and broadcast step.
	StepConfirm StepID = "confirm"
	// StepStatus renders the outcome of the submission.
	StepStatus StepID = "status"
)

// Navigator advances the workflow to the next step. The confirmation step
// always advances, success or failure, it never halts the step sequence.
type Navigator interface {
	Advance(next StepID)
}

// LoggingNavigator records step transitions in the log. It is the default
// navigator of the daemon, where there is no interactive step framework to
// hand control to.
type LoggingNavigator struct {
	logger *logrus.Logger
}

var _ Navigator = (*LoggingNavigator)(nil)

func NewLoggingNavigator(logger *logrus.Logger) *LoggingNavigator {
	return &LoggingNavigator{logger: logger}
}

func (n *LoggingNavigator) Advance(next StepID) {
	n.logger.WithFields(logrus.Fields{
		"step": next,
	}).Debug("Advancing withdrawal workflow")
}
