package http

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Transport operations reported by TransportError.
const (
	OpResolve = "resolve"
	OpSend    = "send"
	OpRead    = "read"
)

// TransportError reports a connection or I/O failure during an exchange.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http: %s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsTimeout reports whether err is a TransportError caused by a timeout.
func IsTimeout(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Timeout()
}
