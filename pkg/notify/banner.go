package notify

import "time"

// defaultBannerTimeout is how long a non-critical banner stays up before it
// is auto-dismissed and its notification marked read.
const defaultBannerTimeout = 5 * time.Second

// Banner is the single transient surface derived from the notification list:
// the newest unread high-or-critical notification that has not opted out.
type Banner struct {
	Notification Notification
	ShownAt      time.Time
}

// selectBanner picks the banner candidate from a newest-first notification
// list. Returns nil when no notification qualifies.
func selectBanner(notifications []Notification) *Notification {
	for i := range notifications {
		n := &notifications[i]
		if n.Read || n.NoBanner {
			continue
		}
		if n.Priority == PriorityHigh || n.Priority == PriorityCritical {
			return n
		}
	}
	return nil
}
