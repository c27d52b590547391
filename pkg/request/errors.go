package request

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled means the request was superseded or explicitly cancelled.
	// It is never shown to the user.
	ErrCancelled = errors.New("request cancelled")
	// ErrTimeout means the request did not finish within its time bound.
	ErrTimeout = errors.New("request timed out")
	// ErrMalformedResponse means the response could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	errReleased = errors.New("request finished")
)

// RequestFailedError is a transport or application failure.
type RequestFailedError struct {
	// Status is the HTTP status, or 0 when the failure happened before a response.
	Status  int
	Message string
	Err     error
}

// Failed builds a RequestFailedError for a status and message.
func Failed(status int, message string) *RequestFailedError {
	return &RequestFailedError{Status: status, Message: message}
}

func (e *RequestFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Message)
	}
	return "request failed: " + e.Message
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// classify maps an operation error onto the taxonomy.
func classify(err error) error {
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrTimeout) {
		return err
	}
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return err
	}
	if errors.Is(err, ErrMalformedResponse) {
		return &RequestFailedError{Message: ErrMalformedResponse.Error(), Err: err}
	}
	return &RequestFailedError{Message: err.Error(), Err: err}
}

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
