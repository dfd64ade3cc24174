package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mobilitylabs/tripkit/pkg/logger"
)

// MessageHandler receives every inbound domain message (heartbeats and acks
// are consumed internally). Handlers run on a dedicated callback goroutine
// in arrival order and may call back into the Manager.
type MessageHandler func(msg Message)

// StateHandler is notified on every state transition.
type StateHandler func(status Status)

// Manager owns the lifecycle of the persistent realtime channel: connecting,
// heartbeating, reconnecting with linear backoff, queueing outbound messages
// while the channel is down and measuring round-trip latency.
//
// Like the notify Center, all internal state is owned by a single loop
// goroutine; public operations post commands and wait for them to apply.
type Manager struct {
	dialer    Dialer
	cfg       Config
	onMessage MessageHandler
	onState   StateHandler
	logger    *slog.Logger
	clock     func() time.Time

	cmds      chan command
	callbacks *callbackQueue
	inbound   chan inboundFrame
	status    atomic.Pointer[Status]

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	cbDone    chan struct{}
	closeOnce sync.Once

	// Everything below is owned by the loop goroutine.
	state       State
	reason      CloseReason
	lastErr     error
	attempts    int
	gen         int
	conn        Conn
	queue       [][]byte
	heartbeat   *time.Ticker
	reconnect   *time.Timer
	pingAt      time.Time
	latency     time.Duration
	lastBeat    time.Time
}

type command struct {
	fn   func()
	done chan struct{}
}

type inboundFrame struct {
	gen     int
	payload []byte
	err     error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConfig sets the connection settings. Zero fields fall back to
// defaults.
func WithConfig(cfg Config) ManagerOption {
	return func(m *Manager) { m.cfg = cfg.withDefaults() }
}

// WithMessageHandler sets the inbound domain message handler.
func WithMessageHandler(fn MessageHandler) ManagerOption {
	return func(m *Manager) { m.onMessage = fn }
}

// WithStateHandler sets the state transition handler.
func WithStateHandler(fn StateHandler) ManagerOption {
	return func(m *Manager) { m.onState = fn }
}

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// withClock overrides the time source in tests.
func withClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// NewManager creates a Manager over the given transport and starts its loop.
// The connection is not dialed until Connect is called.
func NewManager(dialer Dialer, opts ...ManagerOption) *Manager {
	m := &Manager{
		dialer:    dialer,
		cfg:       DefaultConfig(),
		logger:    slog.Default(),
		clock:     time.Now,
		cmds:      make(chan command, 32),
		callbacks: newCallbackQueue(),
		inbound:   make(chan inboundFrame, 32),
		done:      make(chan struct{}),
		cbDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = StateIdle
	m.syncStatus()

	m.ctx, m.cancel = context.WithCancel(context.Background())
	go m.loop()
	go m.runCallbacks()

	return m
}

// Connect starts (or restarts) the connection. It resets the attempt counter,
// so a terminal Closed state is recoverable. A no-op while a connection is
// already establishing or open.
func (m *Manager) Connect() {
	m.do(func() {
		switch m.state {
		case StateConnecting, StateOpen, StateReconnecting:
			return
		}
		m.reason = ReasonNone
		m.lastErr = nil
		m.attempts = 0
		m.startAttempt()
	})
}

// Disconnect closes the channel on the caller's request. Timers are
// cancelled, the close reason is recorded as manual and no auto-reconnect is
// scheduled. Connect may be called again later.
func (m *Manager) Disconnect() {
	m.do(func() {
		if m.state == StateClosed || m.state == StateIdle {
			return
		}
		m.teardownConn()
		m.stopReconnect()
		m.reason = ReasonManual
		m.lastErr = nil
		m.setState(StateClosed)
	})
}

// Close shuts the Manager down entirely: the connection is dropped, the loop
// and callback goroutines stop and further operations become no-ops.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.do(func() {
			m.teardownConn()
			m.stopReconnect()
		})
		m.cancel()
		<-m.done
		m.callbacks.close()
		<-m.cbDone
	})
}

// Send marshals v as JSON and transmits it over the open channel. While the
// channel is not open the message is appended to the outbound FIFO queue and
// flushed, in order and exactly once, when the connection next opens.
// After Close it returns ErrManagerClosed: the message could never be
// flushed. Transmission failures on an open channel are a connection-level
// concern handled by reconnection, not per-message retry.
func (m *Manager) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding outbound message: %w", err)
	}

	accepted := m.do(func() {
		if m.state == StateOpen && m.conn != nil {
			m.transmit(payload)
			return
		}
		m.queue = append(m.queue, payload)
	})
	if !accepted {
		return ErrManagerClosed
	}
	return nil
}

// Ping records a send timestamp and emits a ping frame. The next inbound ack
// resolves the round-trip latency; acks without an outstanding ping are
// ignored.
func (m *Manager) Ping() {
	m.do(func() {
		if m.state != StateOpen || m.conn == nil {
			return
		}
		m.pingAt = m.clock()
		m.transmit(m.controlFrame(TypePing))
	})
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	return *m.status.Load()
}

// --- loop ---

func (m *Manager) loop() {
	defer close(m.done)
	for {
		var heartbeatC <-chan time.Time
		if m.heartbeat != nil {
			heartbeatC = m.heartbeat.C
		}
		var reconnectC <-chan time.Time
		if m.reconnect != nil {
			reconnectC = m.reconnect.C
		}

		select {
		case <-m.ctx.Done():
			return
		case cmd := <-m.cmds:
			cmd.fn()
			// Publish the status before unblocking the caller so a
			// Status read right after an operation sees its effect.
			m.syncStatus()
			if cmd.done != nil {
				close(cmd.done)
			}
		case <-heartbeatC:
			m.beat()
		case <-reconnectC:
			m.reconnect = nil
			m.startAttempt()
		case frame := <-m.inbound:
			m.handleInbound(frame)
		}
		m.syncStatus()
	}
}

func (m *Manager) runCallbacks() {
	defer close(m.cbDone)
	for {
		fn, ok := m.callbacks.next()
		if !ok {
			return
		}
		fn()
	}
}

// callbackQueue is the unbounded FIFO feeding the callback goroutine.
// Handlers may call back into the Manager and block on its loop, so the loop
// side must never block handing a callback over; a bounded channel here
// would let the two sides wait on each other.
type callbackQueue struct {
	mu     sync.Mutex
	fifo   []func()
	wake   chan struct{}
	closed bool
}

func newCallbackQueue() *callbackQueue {
	return &callbackQueue{wake: make(chan struct{}, 1)}
}

// push enqueues fn without ever blocking. Pushes after close are dropped.
func (q *callbackQueue) push(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.fifo = append(q.fifo, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next blocks until a callback is available or the queue is closed and
// drained. Queued callbacks still run after close.
func (q *callbackQueue) next() (func(), bool) {
	for {
		q.mu.Lock()
		if len(q.fifo) > 0 {
			fn := q.fifo[0]
			q.fifo = q.fifo[1:]
			q.mu.Unlock()
			return fn, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}
		<-q.wake
	}
}

func (q *callbackQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// do posts a command and waits for the loop to apply it. It reports whether
// the command was applied; after Close it is dropped and false is returned.
func (m *Manager) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case m.cmds <- command{fn: fn, done: done}:
	case <-m.ctx.Done():
		return false
	}
	select {
	case <-done:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// post is the non-waiting variant used by the dial goroutine.
func (m *Manager) post(fn func()) {
	select {
	case m.cmds <- command{fn: fn}:
	case <-m.ctx.Done():
	}
}

func (m *Manager) startAttempt() {
	m.attempts++
	m.setState(StateConnecting)
	m.logger.LogAttrs(m.ctx, slog.LevelInfo, "dialing realtime channel",
		logger.Attempt(m.attempts),
	)

	gen := m.nextGen()
	go func() {
		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.DialTimeout)
		defer cancel()
		conn, err := m.dialer.Dial(ctx)
		m.post(func() { m.dialResult(gen, conn, err) })
	}()
}

func (m *Manager) dialResult(gen int, conn Conn, err error) {
	if gen != m.gen || m.state != StateConnecting {
		// A manual close or teardown raced the dial; the late result is a
		// no-op.
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		m.logger.LogAttrs(m.ctx, slog.LevelWarn, "dial failed",
			logger.Attempt(m.attempts),
			logger.Error(err),
		)
		m.lastErr = err
		if m.attempts >= m.cfg.MaxAttempts {
			m.terminal()
			return
		}
		m.scheduleReconnect()
		return
	}

	m.conn = conn
	m.attempts = 0
	m.lastErr = nil
	m.reason = ReasonNone
	m.heartbeat = time.NewTicker(m.cfg.HeartbeatInterval)
	go m.read(gen, conn)
	m.setState(StateOpen)
	m.drainQueue()
}

// read pumps inbound payloads from a connection into the loop. The
// generation tag lets the loop discard frames from superseded connections.
func (m *Manager) read(gen int, conn Conn) {
	for {
		payload, err := conn.Receive(m.ctx)
		frame := inboundFrame{gen: gen, payload: payload, err: err}
		select {
		case m.inbound <- frame:
		case <-m.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (m *Manager) handleInbound(frame inboundFrame) {
	if frame.gen != m.gen {
		return
	}
	if frame.err != nil {
		m.connectionLost(fmt.Errorf("%w: %v", ErrConnectionLost, frame.err))
		return
	}

	msg, err := decodeMessage(frame.payload)
	if err != nil {
		// Malformed inbound data is ignored, never fatal.
		m.logger.LogAttrs(m.ctx, slog.LevelDebug, "ignoring malformed message",
			logger.Error(err),
		)
		return
	}

	switch msg.Type {
	case TypeHeartbeat:
		m.lastBeat = m.clock()
	case TypeAck:
		if !m.pingAt.IsZero() {
			m.latency = m.clock().Sub(m.pingAt)
			m.pingAt = time.Time{}
		}
	default:
		if m.onMessage != nil {
			handler := m.onMessage
			m.callbacks.push(func() { handler(msg) })
		}
	}
}

// beat emits the periodic liveness frame while the channel is open.
func (m *Manager) beat() {
	if m.state != StateOpen || m.conn == nil {
		return
	}
	m.transmit(m.controlFrame(TypeHeartbeat))
}

// transmit sends one payload over the open connection. A send failure is a
// connection failure: the message is not retried (the queue handles
// channel-level recovery, not per-message delivery).
func (m *Manager) transmit(payload []byte) {
	if err := m.conn.Send(m.ctx, payload); err != nil {
		m.logger.LogAttrs(m.ctx, slog.LevelWarn, "send failed",
			logger.Error(err),
		)
		m.connectionLost(fmt.Errorf("%w: %v", ErrConnectionLost, err))
	}
}

// drainQueue flushes queued outbound messages in original enqueue order.
// If the connection fails mid-drain the unsent remainder stays queued for
// the next open.
func (m *Manager) drainQueue() {
	for len(m.queue) > 0 && m.state == StateOpen && m.conn != nil {
		payload := m.queue[0]
		m.queue = m.queue[1:]
		if err := m.conn.Send(m.ctx, payload); err != nil {
			m.queue = append([][]byte{payload}, m.queue...)
			m.logger.LogAttrs(m.ctx, slog.LevelWarn, "queue drain interrupted",
				logger.Error(err),
			)
			m.connectionLost(fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}
	}
}

func (m *Manager) connectionLost(err error) {
	if m.state != StateOpen {
		return
	}
	m.teardownConn()
	m.lastErr = err
	m.setState(StateReconnecting)
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	next := m.attempts + 1
	if next > m.cfg.MaxAttempts {
		m.terminal()
		return
	}
	delay := m.cfg.BaseReconnectDelay * time.Duration(next)
	if m.state != StateReconnecting {
		m.setState(StateReconnecting)
	}
	m.reconnect = time.NewTimer(delay)
}

// terminal marks the reconnect budget exhausted. Surfaced as an explicit
// status change; only a caller-initiated Connect restarts the counter.
func (m *Manager) terminal() {
	m.lastErr = ErrMaxReconnectAttempts
	m.reason = ReasonMaxAttempts
	m.setState(StateClosed)
	m.logger.LogAttrs(m.ctx, slog.LevelError, "giving up on realtime channel",
		logger.Attempt(m.attempts),
		logger.Error(ErrMaxReconnectAttempts),
	)
}

// teardownConn drops the live connection and invalidates its reader.
func (m *Manager) teardownConn() {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
		m.heartbeat = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.pingAt = time.Time{}
	m.nextGen()
}

func (m *Manager) stopReconnect() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}

func (m *Manager) controlFrame(typ string) []byte {
	payload, _ := json.Marshal(envelope{Type: typ, Timestamp: m.clock()})
	return payload
}

func (m *Manager) nextGen() int {
	m.gen++
	return m.gen
}

func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.syncStatus()
	m.logger.LogAttrs(m.ctx, slog.LevelInfo, "connection state changed",
		logger.ConnState(s.String()),
	)

	if m.onState != nil {
		status := m.Status()
		handler := m.onState
		m.callbacks.push(func() { handler(status) })
	}
}

func (m *Manager) syncStatus() {
	m.status.Store(&Status{
		State:          m.state,
		Reason:         m.reason,
		Attempts:       m.attempts,
		QueuedMessages: len(m.queue),
		LastHeartbeat:  m.lastBeat,
		Latency:        m.latency,
		Err:            m.lastErr,
	})
}
