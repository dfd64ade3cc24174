package realtime

import "time"

// State is the connection lifecycle state. Transitions happen only inside
// the Manager loop: Idle -> Connecting -> Open -> (Reconnecting <->
// Connecting) -> Closed.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason distinguishes why a connection ended up Closed.
type CloseReason int

const (
	// ReasonNone: the connection is not closed.
	ReasonNone CloseReason = iota
	// ReasonManual: the caller requested the close; no auto-reconnect.
	ReasonManual
	// ReasonMaxAttempts: the reconnect budget is exhausted; terminal until
	// the caller connects again.
	ReasonMaxAttempts
)

func (r CloseReason) String() string {
	switch r {
	case ReasonManual:
		return "manual"
	case ReasonMaxAttempts:
		return "max_attempts"
	default:
		return "none"
	}
}

// Status is a point-in-time view of the connection, safe to poll from any
// goroutine.
type Status struct {
	State          State
	Reason         CloseReason
	Attempts       int
	QueuedMessages int
	LastHeartbeat  time.Time
	Latency        time.Duration
	Err            error
}

// Connected reports whether the channel is open.
func (s Status) Connected() bool {
	return s.State == StateOpen
}
