package realtime

import "errors"

var (
	// ErrMaxReconnectAttempts is the terminal error surfaced when the
	// reconnect budget is exhausted. The consumer must call Connect to
	// restart the attempt counter.
	ErrMaxReconnectAttempts = errors.New("max reconnection attempts reached")

	// ErrManagerClosed is returned by Send on a Manager after Close;
	// accepting a message that can never be flushed would lose it silently.
	ErrManagerClosed = errors.New("realtime manager is closed")

	// ErrConnectionLost is the error recorded when the peer drops an open
	// connection.
	ErrConnectionLost = errors.New("connection lost")
)
