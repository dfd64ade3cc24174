package notify

import (
	"context"
	"log/slog"

	"github.com/mobilitylabs/tripkit/pkg/logger"
)

// Delivery carries the preference and permission snapshot that was current
// when a notification was accepted. Deliverers gate themselves on it.
type Delivery struct {
	Preferences Preferences
	PushGranted bool
}

// Deliverer triggers a single output channel for an accepted notification.
//
// Deliverers are invoked fire-and-forget after the store mutation has
// committed: they must not block the Center and their errors are logged,
// never retried and never propagated to the producer.
type Deliverer interface {
	// Name identifies the channel for logging.
	Name() string

	// Deliver fires the channel's side effect for the notification.
	Deliver(ctx context.Context, n Notification, d Delivery) error
}

// MultiDeliverer fans a notification out to several channels, best effort.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

// MultiDelivererOption configures a MultiDeliverer.
type MultiDelivererOption func(*MultiDeliverer)

// WithMultiDelivererLogger sets the logger for the MultiDeliverer.
func WithMultiDelivererLogger(log *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		m.logger = log
	}
}

// NewMultiDeliverer creates a deliverer that fans out to all given channels.
func NewMultiDeliverer(deliverers []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{
		deliverers: deliverers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MultiDeliverer) Name() string { return "multi" }

// Deliver fires every channel in order. A failing channel is logged and the
// remaining channels still fire.
func (m *MultiDeliverer) Deliver(ctx context.Context, n Notification, d Delivery) error {
	for _, deliverer := range m.deliverers {
		if err := deliverer.Deliver(ctx, n, d); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
				logger.NotificationID(n.ID),
				logger.Channel(deliverer.Name()),
				logger.Error(err),
			)
		}
	}
	return nil
}

// NoOpDeliverer is a Deliverer that does nothing. Useful for tests and for
// running the Center without side channels.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Name() string { return "noop" }

func (NoOpDeliverer) Deliver(ctx context.Context, n Notification, d Delivery) error {
	return nil
}
