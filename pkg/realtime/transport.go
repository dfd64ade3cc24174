package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Recognized wire message types. The channel carries JSON envelopes of the
// shape {"type": ..., "timestamp": ..., ...}.
const (
	TypeHeartbeat         = "heartbeat"
	TypePing              = "ping"
	TypeAck               = "ack"
	TypeTripUpdate        = "trip_update"
	TypeAchievementUpdate = "achievement_update"
	TypeChallengeUpdate   = "challenge_update"
	TypeSyncComplete      = "sync_complete"
)

// Message is a decoded inbound envelope. Raw holds the full payload so
// consumers can decode type-specific fields.
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Raw       json.RawMessage `json:"-"`
}

func decodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("decoding message envelope: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("message envelope has no type")
	}
	msg.Raw = payload
	return msg, nil
}

// envelope is the outbound control frame (heartbeats, pings).
type envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Conn is a single established realtime connection.
//
// Send and Receive are called from different goroutines but each from at
// most one at a time. Receive blocks until a message arrives, the peer
// disconnects (an error) or ctx is cancelled.
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer establishes connections. It is the transport abstraction that keeps
// failure injection out of production code: the Manager drives whatever the
// Dialer returns, so tests plug a scripted ChaosDialer where production
// plugs a WebsocketDialer.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}
