package notify

import (
	"context"
	"sync"
)

// EventKind identifies what changed in the Center.
type EventKind string

const (
	EventNotificationAdded   EventKind = "notification_added"
	EventNotificationRead    EventKind = "notification_read"
	EventNotificationRemoved EventKind = "notification_removed"
	EventBannerChanged       EventKind = "banner_changed"
	EventPreferencesChanged  EventKind = "preferences_changed"
	EventStatusChanged       EventKind = "status_changed"
	EventPermissionChanged   EventKind = "permission_changed"
)

// Event describes a committed state change. Notification is set for the
// notification_* kinds; Banner carries the new active banner (nil when
// cleared) for banner_changed.
type Event struct {
	Kind         EventKind
	Notification *Notification
	Banner       *Banner
}

// Subscription receives Center events.
//
// Events are delivered on a buffered channel with non-blocking sends: a
// subscriber that stops draining loses events rather than stalling the
// Center. Close is idempotent.
type Subscription struct {
	ch     chan Event
	closed bool
	mu     sync.RWMutex
}

func newSubscription(buffer int) *Subscription {
	return &Subscription{ch: make(chan Event, buffer)}
}

// Events returns the receive channel. It is closed when the subscription or
// the Center closes.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close stops delivery and closes the event channel.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

func (s *Subscription) send(ev Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// eventHub fans Center events out to subscribers without ever blocking the
// dispatch loop.
type eventHub struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	buffer      int
	closed      bool
	done        chan struct{}
	cleanupWg   sync.WaitGroup
}

func newEventHub(buffer int) *eventHub {
	return &eventHub{
		subscribers: make(map[*Subscription]struct{}),
		buffer:      max(buffer, 1),
		done:        make(chan struct{}),
	}
}

func (h *eventHub) subscribe(ctx context.Context) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscription(h.buffer)
	if h.closed {
		sub.Close()
		return sub
	}
	h.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			// The hub closing must release this goroutine even while the
			// subscriber's context is still live.
			select {
			case <-ctx.Done():
				h.unsubscribe(sub)
			case <-h.done:
			}
		}()
	}

	return sub
}

func (h *eventHub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for sub := range h.subscribers {
		if !sub.send(ev) {
			// Slow or closed subscribers are removed off the hot path.
			go h.unsubscribe(sub)
		}
	}
}

func (h *eventHub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers, sub)
	sub.Close()
}

func (h *eventHub) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.done)
	for sub := range h.subscribers {
		sub.Close()
	}
	clear(h.subscribers)
	h.mu.Unlock()

	h.cleanupWg.Wait()
}
