// Package utils provides channel helpers used to communicate with the
// withdrawer event loop.
package utils

import (
	"errors"
)

var ErrServiceShuttingDown = errors.New("service is shutting down")

// PushOrQuit sends the given message to the channel or returns early if the
// quit channel is closed.
func PushOrQuit[T any](ch chan<- T, msg T, quit <-chan struct{}) {
	select {
	case ch <- msg:
	case <-quit:
	}
}

// Request is a one-shot request which expects either a result or an error.
// Both channels are buffered so that the responder never blocks.
type Request[A any] struct {
	resultChan chan A
	errChan    chan error
}

func NewRequest[A any]() Request[A] {
	return Request[A]{
		resultChan: make(chan A, 1),
		errChan:    make(chan error, 1),
	}
}

func (r Request[A]) ResultChan() chan A {
	return r.resultChan
}

func (r Request[A]) ErrorChan() chan error {
	return r.errChan
}

// Requester is implemented by every request type embedding Request.
type Requester[A any] interface {
	ResultChan() chan A
	ErrorChan() chan error
}

// SendRequestAndWaitForResponseOrQuit pushes the request to the processing
// channel and blocks until either a response arrives or the quit channel is
// closed.
func SendRequestAndWaitForResponseOrQuit[A any, R Requester[A]](
	req R,
	sendChan chan R,
	quit <-chan struct{},
) (A, error) {
	var zero A

	select {
	case sendChan <- req:
	case <-quit:
		return zero, ErrServiceShuttingDown
	}

	select {
	case err := <-req.ErrorChan():
		return zero, err
	case result := <-req.ResultChan():
		return result, nil
	case <-quit:
		return zero, ErrServiceShuttingDown
	}
}
