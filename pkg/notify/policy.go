package notify

import (
	"fmt"
	"time"
)

// ShouldDeliver decides whether a notification of the given category may be
// surfaced under the current preferences at the given time. It is a pure
// function with no side effects.
//
// Rules are applied in order: do-not-disturb suppresses everything, then an
// enabled quiet-hours window suppresses everything inside it, then the
// category's preference flag decides. Categories without a flag are allowed.
func ShouldDeliver(prefs Preferences, category Category, now time.Time) bool {
	if prefs.DoNotDisturb {
		return false
	}

	if prefs.QuietHours.Enabled && inQuietWindow(prefs.QuietHours, now) {
		return false
	}

	switch category {
	case CategoryTripValidation:
		return prefs.TripValidation
	case CategoryAchievement:
		return prefs.Achievements
	case CategoryChallenge:
		return prefs.Challenges
	case CategorySystemStatus, CategoryBatteryWarning, CategoryLocationUpdate:
		return prefs.SystemAlerts
	default:
		return true
	}
}

func inQuietWindow(qh QuietHours, now time.Time) bool {
	start, err := clockMinutes(qh.Start)
	if err != nil {
		// Malformed window never suppresses.
		return false
	}
	end, err := clockMinutes(qh.End)
	if err != nil {
		return false
	}

	current := now.Hour()*60 + now.Minute()

	if start <= end {
		// Same-day window, boundaries inclusive.
		return current >= start && current <= end
	}
	// Overnight window, e.g. 22:00-07:00.
	return current >= start || current <= end
}

// clockMinutes parses an "HH:MM" wall-clock string into minutes since
// midnight.
func clockMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return h*60 + m, nil
}
