// Package realtime maintains the persistent channel between the tripkit
// client and its backend: connection lifecycle, heartbeats, reconnection
// with linear backoff, an outbound FIFO queue and round-trip latency
// measurement.
//
// # Lifecycle
//
//	Idle -> Connecting -> Open -> (Reconnecting <-> Connecting) -> Closed
//
// A lost connection schedules reconnects at BaseReconnectDelay x attempt
// number. Exhausting MaxAttempts is terminal: the Manager stays Closed with
// ErrMaxReconnectAttempts until the consumer calls Connect again, which
// resets the counter. A caller-initiated Disconnect records a manual close
// reason and never auto-reconnects.
//
// # Transports
//
// The Manager drives an abstract Dialer/Conn pair. WebsocketDialer is the
// production transport; ChaosDialer is a deterministic in-memory transport
// for tests and demos, with scripted dial failures, injected frames and
// forced drops in place of random fault thresholds.
//
//	manager := realtime.NewManager(
//	    realtime.NewWebsocketDialer(cfg.URL),
//	    realtime.WithConfig(cfg),
//	    realtime.WithMessageHandler(route),
//	    realtime.WithStateHandler(reflectStatus),
//	)
//	manager.Connect()
//	defer manager.Close()
//
// Send queues while the channel is down and flushes in order, exactly once,
// when it opens.
package realtime
