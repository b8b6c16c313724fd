package driver

import (
	"fmt"
	"time"
)

// ConnectionError reports a failed WebSocket handshake or a send on a
// socket that went away. Callers may retry Initialize.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RequestTimeoutError fails a single request whose reply never arrived
// inside its window. The connection and other in-flight requests are
// unaffected.
type RequestTimeoutError struct {
	RequestID string
	Elapsed   time.Duration
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request %s timed out after %s", e.RequestID, e.Elapsed.Round(time.Millisecond))
}
