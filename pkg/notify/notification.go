package notify

import (
	"time"
)

// Category classifies a notification by the subsystem that produced it.
type Category string

const (
	CategoryTripValidation Category = "trip_validation"
	CategoryAchievement    Category = "achievement"
	CategoryChallenge      Category = "challenge"
	CategorySystemStatus   Category = "system_status"
	CategoryBatteryWarning Category = "battery_warning"
	CategoryLocationUpdate Category = "location_update"
	CategorySyncStatus     Category = "sync_status"
	CategoryGeneral        Category = "general"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTripValidation, CategoryAchievement, CategoryChallenge,
		CategorySystemStatus, CategoryBatteryWarning, CategoryLocationUpdate,
		CategorySyncStatus, CategoryGeneral:
		return true
	}
	return false
}

// Priority represents the notification priority level. It governs banner
// eligibility, auto-dismiss behavior and side-channel intensity.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ToneFrequency returns the audible tone frequency in Hz for the priority.
// Unknown priorities fall back to the medium tone.
func (p Priority) ToneFrequency() int {
	switch p {
	case PriorityLow:
		return 200
	case PriorityMedium:
		return 400
	case PriorityHigh:
		return 600
	case PriorityCritical:
		return 800
	default:
		return 400
	}
}

// VibrationPattern returns the haptic pulse pattern in milliseconds for the
// priority. Unknown priorities fall back to a single short pulse.
func (p Priority) VibrationPattern() []int {
	switch p {
	case PriorityLow:
		return []int{100}
	case PriorityMedium:
		return []int{100, 50, 100}
	case PriorityHigh:
		return []int{200, 50, 200, 50, 200}
	case PriorityCritical:
		return []int{300, 100, 300, 100, 300}
	default:
		return []int{100}
	}
}

// RequiresInteraction reports whether a platform alert for this priority must
// stay on screen until the user acts on it.
func (p Priority) RequiresInteraction() bool {
	return p == PriorityCritical
}

// Notification is the core domain model.
//
// ID and Timestamp are stamped by the Center when the notification is
// accepted; values supplied by producers are overwritten. The zero value of
// NoBanner means the notification is banner-eligible.
type Notification struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Priority    Priority       `json:"priority"`
	Title       string         `json:"title"`
	Message     string         `json:"message,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Read        bool           `json:"read"`
	ActionLabel string         `json:"action_label,omitempty"`
	ActionFunc  func()         `json:"-"`
	NoBanner    bool           `json:"no_banner,omitempty"`
	Data        map[string]any `json:"data,omitempty"`

	// seq is a session-monotonic sequence number used for banner identity.
	seq uint64
}
