package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrDialRefused is the error a ChaosDialer returns for scripted dial
// failures.
var ErrDialRefused = errors.New("dial refused")

// ChaosDialer is the failure-injection transport used for resilience testing
// and demos. It replaces the hard-coded random disconnect/send-failure
// thresholds of ad-hoc simulators with explicit, deterministic knobs: tests
// script exactly which dials fail and when a connection drops.
type ChaosDialer struct {
	// FailFirst makes the first n dials fail with ErrDialRefused.
	FailFirst int
	// AutoAck makes every connection answer each received frame with an ack
	// envelope, like a well-behaved echo server.
	AutoAck bool
	// AckDelay postpones auto-acks, e.g. to give latency probes something
	// to measure.
	AckDelay time.Duration

	mu    sync.Mutex
	dials int
	conns []*ChaosConn
}

// Dial implements Dialer.
func (d *ChaosDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.dials <= d.FailFirst {
		return nil, ErrDialRefused
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn := newChaosConn(d.AutoAck, d.AckDelay)
	d.conns = append(d.conns, conn)
	return conn, nil
}

// Dials returns how many dial attempts have been made.
func (d *ChaosDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Conn returns the most recently established connection, or nil.
func (d *ChaosDialer) Conn() *ChaosConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// ChaosConn is the in-memory connection a ChaosDialer hands out. The test
// plays the server side: Inject pushes inbound frames, Drop simulates an
// unsolicited disconnect, Sent inspects everything the client transmitted.
type ChaosConn struct {
	autoAck  bool
	ackDelay time.Duration

	in     chan []byte
	closed chan struct{}

	mu       sync.Mutex
	sent     [][]byte
	sendErr  error
	closeOne sync.Once
}

func newChaosConn(autoAck bool, ackDelay time.Duration) *ChaosConn {
	return &ChaosConn{
		autoAck:  autoAck,
		ackDelay: ackDelay,
		in:       make(chan []byte, 32),
		closed:   make(chan struct{}),
	}
}

// Send implements Conn.
func (c *ChaosConn) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}

	c.mu.Lock()
	if c.sendErr != nil {
		err := c.sendErr
		c.mu.Unlock()
		return err
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.sent = append(c.sent, cp)
	autoAck := c.autoAck
	delay := c.ackDelay
	c.mu.Unlock()

	if autoAck {
		ack, _ := json.Marshal(envelope{Type: TypeAck, Timestamp: time.Now()})
		if delay > 0 {
			time.AfterFunc(delay, func() { c.Inject(ack) })
		} else {
			c.Inject(ack)
		}
	}
	return nil
}

// Receive implements Conn.
func (c *ChaosConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-c.in:
		return payload, nil
	case <-c.closed:
		return nil, errors.New("connection closed by peer")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements Conn.
func (c *ChaosConn) Close() error {
	c.closeOne.Do(func() { close(c.closed) })
	return nil
}

// Inject delivers a server-side frame to the client. Frames injected after
// the connection dropped are discarded.
func (c *ChaosConn) Inject(payload []byte) {
	select {
	case <-c.closed:
	case c.in <- payload:
	default:
	}
}

// InjectEnvelope marshals and injects a {type, timestamp} frame merged with
// extra fields.
func (c *ChaosConn) InjectEnvelope(typ string, extra map[string]any) {
	frame := map[string]any{
		"type":      typ,
		"timestamp": time.Now(),
	}
	for k, v := range extra {
		frame[k] = v
	}
	payload, _ := json.Marshal(frame)
	c.Inject(payload)
}

// Drop simulates an unsolicited disconnect: the client's pending Receive
// returns an error, as if the peer vanished.
func (c *ChaosConn) Drop() {
	c.closeOne.Do(func() { close(c.closed) })
}

// FailSends makes all subsequent Send calls return err. Pass nil to restore
// normal sends.
func (c *ChaosConn) FailSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// Sent returns a copy of every payload the client has transmitted, in order.
func (c *ChaosConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentTypes returns the envelope type of every transmitted payload, in
// order. Unparseable payloads appear as "?".
func (c *ChaosConn) SentTypes() []string {
	sent := c.Sent()
	types := make([]string, 0, len(sent))
	for _, payload := range sent {
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil || env.Type == "" {
			types = append(types, "?")
			continue
		}
		types = append(types, env.Type)
	}
	return types
}
