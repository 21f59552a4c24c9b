package feed

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSymbol means the symbol has no broker-side mapping. The
// subscribe or trade call fails; the pipeline keeps running.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

// ErrNotConnected is returned for calls made while the socket is down.
var ErrNotConnected = errors.New("feed not connected")

// ConnectivityError is the fatal error emitted after reconnect attempts are
// exhausted.
type ConnectivityError struct {
	Attempts int
	Last     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("feed connection lost after %d reconnect attempts: %v", e.Attempts, e.Last)
}

func (e *ConnectivityError) Unwrap() error { return e.Last }

// OrderError is a broker-rejected live order. No trade record exists when
// this is returned.
type OrderError struct {
	Code    string
	Message string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("broker rejected order: %s (%s)", e.Message, e.Code)
}
