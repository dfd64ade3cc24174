package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// NotificationID records a notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// Category records a notification category under the key "category".
func Category(c any) slog.Attr {
	if c == nil {
		return slog.Attr{}
	}
	return slog.Any("category", c)
}

// Channel records a delivery channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// ConnState records a connection state under the key "conn_state".
func ConnState(s any) slog.Attr {
	if s == nil {
		return slog.Attr{}
	}
	return slog.Any("conn_state", s)
}

// Attempt records a connection attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Latency records a round-trip latency under the key "latency".
func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}

// MessageType records a wire message type under the key "message_type".
func MessageType(t string) slog.Attr {
	return slog.String("message_type", t)
}
