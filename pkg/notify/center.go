package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mobilitylabs/tripkit/pkg/logger"
)

// Clock returns the current time. Injectable for quiet-hours and banner
// tests.
type Clock func() time.Time

// PermissionFunc asks the platform for notification permission. It may block
// on a user prompt; the Center never calls it from the dispatch loop.
type PermissionFunc func(ctx context.Context) (bool, error)

// Snapshot is an immutable view of the Center state. Slices are never
// mutated after publication, so holding a Snapshot across dispatches is safe.
type Snapshot struct {
	Notifications []Notification
	UnreadCount   int
	Preferences   Preferences
	SystemStatus  SystemStatus
	PushGranted   bool
	Banner        *Banner
}

// centerState is owned exclusively by the dispatch loop.
type centerState struct {
	notifications []Notification
	prefs         Preferences
	status        SystemStatus
	pushGranted   bool
	banner        *Banner
}

type action struct {
	fn   func()
	done chan struct{}
}

// Center is the single source of truth for notifications, preferences and
// system status.
//
// All mutation flows through one dispatch goroutine: every operation posts an
// action and the loop applies actions strictly in arrival order, so no two
// transitions ever interleave. Mutating methods block until their action has
// been applied, which makes per-caller ordering equal to call order. Reads
// return the snapshot committed by the most recent action.
type Center struct {
	storage       PreferenceStorage
	deliverer     Deliverer
	permission    PermissionFunc
	logger        *slog.Logger
	clock         Clock
	bannerTimeout time.Duration

	actions  chan action
	snapshot atomic.Pointer[Snapshot]
	events   *eventHub

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	// Everything below is touched only by the dispatch loop.
	state       centerState
	bannerTimer *time.Timer
	seq         uint64
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithStorage sets the preference store. Defaults to in-memory.
func WithStorage(s PreferenceStorage) CenterOption {
	return func(c *Center) {
		if s != nil {
			c.storage = s
		}
	}
}

// WithDeliverer sets the side-channel dispatcher. Defaults to NoOpDeliverer.
func WithDeliverer(d Deliverer) CenterOption {
	return func(c *Center) {
		if d != nil {
			c.deliverer = d
		}
	}
}

// WithPermissionFunc sets the platform permission callback used by
// RequestPermission.
func WithPermissionFunc(fn PermissionFunc) CenterOption {
	return func(c *Center) { c.permission = fn }
}

// WithLogger sets the logger for the Center.
func WithLogger(log *slog.Logger) CenterOption {
	return func(c *Center) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) CenterOption {
	return func(c *Center) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBannerTimeout overrides the non-critical banner auto-dismiss delay.
func WithBannerTimeout(d time.Duration) CenterOption {
	return func(c *Center) {
		if d > 0 {
			c.bannerTimeout = d
		}
	}
}

// WithEventBuffer sets the per-subscription event channel buffer.
func WithEventBuffer(n int) CenterOption {
	return func(c *Center) {
		if n > 0 {
			c.events = newEventHub(n)
		}
	}
}

// NewCenter creates and starts a Center, loading preferences from storage.
// A store that has never been written yields default preferences; a failing
// store is an error because losing preference state silently would be worse
// than failing loudly at startup.
func NewCenter(ctx context.Context, opts ...CenterOption) (*Center, error) {
	c := &Center{
		storage:       NewMemoryPreferenceStorage(),
		deliverer:     NoOpDeliverer{},
		logger:        slog.Default(),
		clock:         time.Now,
		bannerTimeout: defaultBannerTimeout,
		actions:       make(chan action, 64),
		events:        newEventHub(16),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	prefs, err := c.storage.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSavedPreferences):
		prefs = DefaultPreferences()
	default:
		return nil, fmt.Errorf("loading preferences: %w", err)
	}

	c.state = centerState{
		prefs:  prefs,
		status: DefaultSystemStatus(),
	}
	c.publishSnapshot()

	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.loop()

	return c, nil
}

// Close stops the dispatch loop, cancels pending banner timers and closes
// all event subscriptions. Safe to call multiple times.
func (c *Center) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
		c.events.close()
	})
}

// Subscribe registers for Center events. The subscription is cleaned up when
// ctx is cancelled or when Close is called on either side.
func (c *Center) Subscribe(ctx context.Context) *Subscription {
	return c.events.subscribe(ctx)
}

// Add accepts a notification from a producer. The suppression policy is
// consulted first: a suppressed notification leaves the state untouched and
// fires no side effects, observable only as the absence of change. On
// acceptance the Center stamps identity and timestamp, prepends the
// notification and dispatches the side channels fire-and-forget.
func (c *Center) Add(n Notification) {
	c.do(func() {
		now := c.clock()
		if !ShouldDeliver(c.state.prefs, n.Category, now) {
			return
		}

		n.ID = uuid.NewString()
		c.seq++
		n.seq = c.seq
		n.Timestamp = now
		n.Read = false

		// Whole-list replacement: the previous slice stays valid for any
		// snapshot that still references it.
		list := make([]Notification, 0, len(c.state.notifications)+1)
		list = append(list, n)
		list = append(list, c.state.notifications...)
		c.state.notifications = list

		delivery := Delivery{
			Preferences: c.state.prefs,
			PushGranted: c.state.pushGranted,
		}
		go c.dispatch(n, delivery)

		c.events.publish(Event{Kind: EventNotificationAdded, Notification: &n})
		c.commit()
	})
}

// MarkAsRead marks a single notification as read. Unknown IDs are a no-op.
func (c *Center) MarkAsRead(id string) {
	c.do(func() {
		c.markRead(id)
		c.commit()
	})
}

// MarkAllAsRead marks every notification read. Idempotent.
func (c *Center) MarkAllAsRead() {
	c.do(func() {
		list := make([]Notification, len(c.state.notifications))
		copy(list, c.state.notifications)
		for i := range list {
			list[i].Read = true
		}
		c.state.notifications = list
		c.events.publish(Event{Kind: EventNotificationRead})
		c.commit()
	})
}

// Remove deletes a notification from the list. Unknown IDs are a no-op.
func (c *Center) Remove(id string) {
	c.do(func() {
		list := make([]Notification, 0, len(c.state.notifications))
		var removed *Notification
		for _, n := range c.state.notifications {
			if n.ID == id {
				n := n
				removed = &n
				continue
			}
			list = append(list, n)
		}
		if removed == nil {
			return
		}
		c.state.notifications = list
		c.events.publish(Event{Kind: EventNotificationRemoved, Notification: removed})
		c.commit()
	})
}

// ClearAll empties the notification list.
func (c *Center) ClearAll() {
	c.do(func() {
		if len(c.state.notifications) == 0 {
			return
		}
		c.state.notifications = nil
		c.events.publish(Event{Kind: EventNotificationRemoved})
		c.commit()
	})
}

// UpdatePreferences applies a partial preference update and persists the
// result. Persistence failures are logged; the in-memory update always wins
// so the session stays consistent.
func (c *Center) UpdatePreferences(patch PreferencesPatch) {
	c.do(func() {
		c.state.prefs = patch.apply(c.state.prefs)

		prefs := c.state.prefs
		go func() {
			if err := c.storage.Save(c.ctx, prefs); err != nil {
				c.logger.LogAttrs(c.ctx, slog.LevelWarn, "failed to persist preferences",
					logger.Error(err),
				)
			}
		}()

		c.events.publish(Event{Kind: EventPreferencesChanged})
		c.commit()
	})
}

// UpdateSystemStatus applies a partial system status update.
func (c *Center) UpdateSystemStatus(patch SystemStatusPatch) {
	c.do(func() {
		c.state.status = patch.apply(c.state.status)
		c.events.publish(Event{Kind: EventStatusChanged})
		c.commit()
	})
}

// RequestPermission asks the platform for push permission and records the
// result. Only the push channel is gated on it; in-app, sound and vibration
// are unaffected. A denied permission is not an error.
func (c *Center) RequestPermission(ctx context.Context) (bool, error) {
	if c.permission == nil {
		return false, ErrNoPermissionFunc
	}

	granted, err := c.permission(ctx)
	if err != nil {
		return false, fmt.Errorf("requesting permission: %w", err)
	}

	c.do(func() {
		if c.state.pushGranted == granted {
			return
		}
		c.state.pushGranted = granted
		c.events.publish(Event{Kind: EventPermissionChanged})
		c.commit()
	})

	return granted, nil
}

// DismissBanner manually dismisses the active banner, marking its
// notification read and cancelling the pending auto-dismiss timer.
func (c *Center) DismissBanner() {
	c.do(func() {
		c.dismissBanner()
	})
}

// InvokeBannerAction runs the active banner's action callback (off the
// dispatch loop) and dismisses the banner.
func (c *Center) InvokeBannerAction() {
	c.do(func() {
		if c.state.banner == nil {
			return
		}
		if fn := c.state.banner.Notification.ActionFunc; fn != nil {
			go fn()
		}
		c.dismissBanner()
	})
}

// Snapshot returns the state committed by the most recent action.
func (c *Center) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

// Notifications returns the newest-first notification list.
func (c *Center) Notifications() []Notification {
	return c.Snapshot().Notifications
}

// UnreadCount returns the number of unread notifications.
func (c *Center) UnreadCount() int {
	return c.Snapshot().UnreadCount
}

// Preferences returns the current preference set.
func (c *Center) Preferences() Preferences {
	return c.Snapshot().Preferences
}

// SystemStatus returns the current system status.
func (c *Center) SystemStatus() SystemStatus {
	return c.Snapshot().SystemStatus
}

// PushGranted reports whether platform push permission has been recorded.
func (c *Center) PushGranted() bool {
	return c.Snapshot().PushGranted
}

// ActiveBanner returns the currently displayed banner, or nil.
func (c *Center) ActiveBanner() *Banner {
	return c.Snapshot().Banner
}

// --- dispatch loop ---

func (c *Center) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.stopBannerTimer()
			return
		case a := <-c.actions:
			a.fn()
			if a.done != nil {
				close(a.done)
			}
		}
	}
}

// do posts an action and waits for the loop to apply it. After Close the
// action is dropped: every mutation degrades to a no-op rather than a panic.
func (c *Center) do(fn func()) {
	done := make(chan struct{})
	select {
	case c.actions <- action{fn: fn, done: done}:
	case <-c.ctx.Done():
		return
	}
	select {
	case <-done:
	case <-c.ctx.Done():
	}
}

// post is the non-blocking variant used by timer callbacks.
func (c *Center) post(fn func()) {
	select {
	case c.actions <- action{fn: fn}:
	case <-c.ctx.Done():
	}
}

func (c *Center) markRead(id string) {
	list := make([]Notification, len(c.state.notifications))
	copy(list, c.state.notifications)
	for i := range list {
		if list[i].ID == id {
			if list[i].Read {
				return
			}
			list[i].Read = true
			c.state.notifications = list
			n := list[i]
			c.events.publish(Event{Kind: EventNotificationRead, Notification: &n})
			return
		}
	}
}

func (c *Center) dismissBanner() {
	if c.state.banner == nil {
		return
	}
	c.markRead(c.state.banner.Notification.ID)
	c.commit()
}

// expireBanner is posted by the auto-dismiss timer. The ID guard makes a
// stale timer firing after a banner change a no-op.
func (c *Center) expireBanner(id string) {
	if c.state.banner == nil || c.state.banner.Notification.ID != id {
		return
	}
	c.markRead(id)
	c.commit()
}

// commit recomputes derived state and publishes a fresh snapshot. Called at
// the end of every mutating action.
func (c *Center) commit() {
	c.refreshBanner()
	c.publishSnapshot()
}

func (c *Center) refreshBanner() {
	candidate := selectBanner(c.state.notifications)

	switch {
	case candidate == nil:
		if c.state.banner == nil {
			return
		}
		c.stopBannerTimer()
		c.state.banner = nil
		c.events.publish(Event{Kind: EventBannerChanged})

	case c.state.banner == nil || c.state.banner.Notification.ID != candidate.ID:
		c.stopBannerTimer()
		banner := &Banner{Notification: *candidate, ShownAt: c.clock()}
		c.state.banner = banner

		// Critical banners stay until acted upon.
		if candidate.Priority != PriorityCritical {
			id := candidate.ID
			c.bannerTimer = time.AfterFunc(c.bannerTimeout, func() {
				c.post(func() { c.expireBanner(id) })
			})
		}
		c.events.publish(Event{Kind: EventBannerChanged, Banner: banner})
	}
}

func (c *Center) stopBannerTimer() {
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
}

func (c *Center) publishSnapshot() {
	unread := 0
	for _, n := range c.state.notifications {
		if !n.Read {
			unread++
		}
	}
	c.snapshot.Store(&Snapshot{
		Notifications: c.state.notifications,
		UnreadCount:   unread,
		Preferences:   c.state.prefs,
		SystemStatus:  c.state.status,
		PushGranted:   c.state.pushGranted,
		Banner:        c.state.banner,
	})
}

func (c *Center) dispatch(n Notification, d Delivery) {
	if err := c.deliverer.Deliver(c.ctx, n, d); err != nil {
		c.logger.LogAttrs(c.ctx, slog.LevelWarn, "notification delivery failed",
			logger.NotificationID(n.ID),
			logger.Category(n.Category),
			logger.Error(err),
		)
	}
}
