package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mobilitylabs/tripkit/pkg/logger"
	"github.com/mobilitylabs/tripkit/pkg/notify"
	"github.com/mobilitylabs/tripkit/pkg/realtime"
)

// Bridge feeds inbound realtime messages into the notification Center and
// reflects connection health into the system status.
//
// It owns the realtime.Manager it creates; the Center is shared and only
// reached through its public operations.
type Bridge struct {
	center  *notify.Center
	manager *realtime.Manager
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures a Bridge.
type Option func(*options)

type options struct {
	cfg     realtime.Config
	logger  *slog.Logger
	clock   func() time.Time
	manager []realtime.ManagerOption
}

// WithConfig sets the realtime connection settings.
func WithConfig(cfg realtime.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger for the Bridge and its Manager.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New creates a Bridge over the given transport. The connection is not
// dialed until Connect.
func New(center *notify.Center, dialer realtime.Dialer, opts ...Option) *Bridge {
	o := &options{
		cfg:    realtime.DefaultConfig(),
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	b := &Bridge{
		center: center,
		logger: o.logger,
		clock:  o.clock,
	}
	b.manager = realtime.NewManager(dialer,
		realtime.WithConfig(o.cfg),
		realtime.WithMessageHandler(b.route),
		realtime.WithStateHandler(b.reflectStatus),
		realtime.WithManagerLogger(o.logger),
	)
	return b
}

// Connect starts the realtime channel.
func (b *Bridge) Connect() { b.manager.Connect() }

// Disconnect closes the channel manually; no reconnect is scheduled.
func (b *Bridge) Disconnect() { b.manager.Disconnect() }

// Close shuts down the underlying Manager.
func (b *Bridge) Close() { b.manager.Close() }

// Send forwards an outbound envelope, queueing while the channel is down.
func (b *Bridge) Send(v any) error { return b.manager.Send(v) }

// Ping triggers a latency probe.
func (b *Bridge) Ping() { b.manager.Ping() }

// Status returns the connection status.
func (b *Bridge) Status() realtime.Status { return b.manager.Status() }

// Manager exposes the underlying connection manager.
func (b *Bridge) Manager() *realtime.Manager { return b.manager }

type tripUpdate struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Trip        map[string]any `json:"trip"`
}

type achievementUpdate struct {
	Achievement struct {
		Name string `json:"name"`
	} `json:"achievement"`
}

type challengeUpdate struct {
	Message   string         `json:"message"`
	Challenge map[string]any `json:"challenge"`
}

// route translates inbound server events into notifications and status
// updates.
func (b *Bridge) route(msg realtime.Message) {
	switch msg.Type {
	case realtime.TypeTripUpdate:
		var upd tripUpdate
		if !b.decode(msg, &upd) {
			return
		}
		b.center.Add(notify.Notification{
			Category: notify.CategoryTripValidation,
			Priority: notify.PriorityHigh,
			Title:    "Trip Detected",
			Message:  fmt.Sprintf("New trip from %s to %s", upd.Origin, upd.Destination),
			Data:     upd.Trip,
		})

	case realtime.TypeAchievementUpdate:
		var upd achievementUpdate
		if !b.decode(msg, &upd) {
			return
		}
		b.center.Add(notify.Notification{
			Category: notify.CategoryAchievement,
			Priority: notify.PriorityHigh,
			Title:    "Achievement Unlocked!",
			Message:  fmt.Sprintf("You earned %q", upd.Achievement.Name),
		})

	case realtime.TypeChallengeUpdate:
		var upd challengeUpdate
		if !b.decode(msg, &upd) {
			return
		}
		b.center.Add(notify.Notification{
			Category: notify.CategoryChallenge,
			Priority: notify.PriorityMedium,
			Title:    "Challenge Update",
			Message:  upd.Message,
			Data:     upd.Challenge,
		})

	case realtime.TypeSyncComplete:
		now := b.clock()
		b.center.UpdateSystemStatus(notify.SystemStatusPatch{LastSync: &now})

	default:
		b.logger.LogAttrs(context.Background(), slog.LevelDebug, "ignoring unknown message type",
			logger.MessageType(msg.Type),
		)
	}
}

// reflectStatus mirrors connection transitions into system status and
// low-noise sync notifications. None of them request a banner.
func (b *Bridge) reflectStatus(status realtime.Status) {
	switch status.State {
	case realtime.StateOpen:
		now := b.clock()
		b.center.UpdateSystemStatus(notify.SystemStatusPatch{
			ChannelConnected: ptr(true),
			LastSync:         &now,
		})
		b.center.Add(notify.Notification{
			Category: notify.CategorySyncStatus,
			Priority: notify.PriorityLow,
			Title:    "Connected to Server",
			Message:  "Real-time sync is now active",
			NoBanner: true,
		})

	case realtime.StateReconnecting:
		b.center.UpdateSystemStatus(notify.SystemStatusPatch{
			ChannelConnected: ptr(false),
		})
		b.center.Add(notify.Notification{
			Category: notify.CategorySyncStatus,
			Priority: notify.PriorityMedium,
			Title:    "Connection Lost",
			Message:  "Attempting to reconnect...",
			NoBanner: true,
		})

	case realtime.StateClosed:
		b.center.UpdateSystemStatus(notify.SystemStatusPatch{
			ChannelConnected: ptr(false),
		})
		if status.Reason == realtime.ReasonMaxAttempts {
			b.center.Add(notify.Notification{
				Category: notify.CategorySyncStatus,
				Priority: notify.PriorityMedium,
				Title:    "Connection Error",
				Message:  "Failed to connect to server",
				NoBanner: true,
			})
		}
	}
}

func (b *Bridge) decode(msg realtime.Message, v any) bool {
	if err := json.Unmarshal(msg.Raw, v); err != nil {
		b.logger.LogAttrs(context.Background(), slog.LevelDebug, "ignoring malformed message payload",
			logger.MessageType(msg.Type),
			logger.Error(err),
		)
		return false
	}
	return true
}

func ptr[T any](v T) *T { return &v }
