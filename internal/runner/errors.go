package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// ErrInvalidConfiguration is wrapped by every Config.Validate failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrorKind is the failure class of an attempt.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"
	KindTransport  ErrorKind = "transport"
	KindCanceled   ErrorKind = "canceled"
	KindStatus     ErrorKind = "status"
)

// label is the prefix used in Outcome.Error, which keys the error histogram.
func (k ErrorKind) label() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection error"
	case KindCanceled:
		return "canceled"
	default:
		return "transport error"
	}
}

// AttemptError is a failure below HTTP: no response was received.
type AttemptError struct {
	Kind ErrorKind
	Err  error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind.label(), e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// UnexpectedStatusError is a response other than 200.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

type errorString string

func (e errorString) Error() string { return string(e) }

// classify turns a client.Do error into an AttemptError. parent is the run
// context; its cancellation takes precedence over the per-attempt deadline.
func classify(parent context.Context, err error) *AttemptError {
	cause := err
	var uerr *url.Error
	if errors.As(err, &uerr) {
		cause = uerr.Err
	}

	if parent.Err() != nil {
		return &AttemptError{Kind: KindCanceled, Err: cause}
	}

	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AttemptError{Kind: KindTimeout, Err: cause}
	case errors.As(err, &nerr) && nerr.Timeout():
		return &AttemptError{Kind: KindTimeout, Err: cause}
	case isConnectionError(err):
		return &AttemptError{Kind: KindConnection, Err: cause}
	default:
		return &AttemptError{Kind: KindTransport, Err: cause}
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
