package notify

import "time"

// QuietHours describes a daily window during which notifications are
// suppressed. Start and End are wall-clock times in "HH:MM" form; a window
// with Start > End wraps past midnight (e.g. 22:00-07:00).
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Preferences holds per-category opt-ins, delivery channel toggles and
// time-based suppression settings. Owned exclusively by the Center; consumers
// read copies and mutate through Center.UpdatePreferences.
type Preferences struct {
	TripValidation bool `json:"trip_validation"`
	Achievements   bool `json:"achievements"`
	Challenges     bool `json:"challenges"`
	SystemAlerts   bool `json:"system_alerts"`

	Push      bool `json:"push"`
	InApp     bool `json:"in_app"`
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`

	DoNotDisturb bool       `json:"do_not_disturb"`
	QuietHours   QuietHours `json:"quiet_hours"`
}

// DefaultPreferences returns the out-of-the-box preference set: every
// category and channel enabled, quiet hours configured overnight but off.
func DefaultPreferences() Preferences {
	return Preferences{
		TripValidation: true,
		Achievements:   true,
		Challenges:     true,
		SystemAlerts:   true,
		Push:           true,
		InApp:          true,
		Sound:          true,
		Vibration:      true,
		QuietHours: QuietHours{
			Start: "22:00",
			End:   "07:00",
		},
	}
}

// PreferencesPatch is a partial preference update. Nil fields leave the
// current value untouched.
type PreferencesPatch struct {
	TripValidation *bool       `json:"trip_validation,omitempty"`
	Achievements   *bool       `json:"achievements,omitempty"`
	Challenges     *bool       `json:"challenges,omitempty"`
	SystemAlerts   *bool       `json:"system_alerts,omitempty"`
	Push           *bool       `json:"push,omitempty"`
	InApp          *bool       `json:"in_app,omitempty"`
	Sound          *bool       `json:"sound,omitempty"`
	Vibration      *bool       `json:"vibration,omitempty"`
	DoNotDisturb   *bool       `json:"do_not_disturb,omitempty"`
	QuietHours     *QuietHours `json:"quiet_hours,omitempty"`
}

func (p PreferencesPatch) apply(prefs Preferences) Preferences {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&prefs.TripValidation, p.TripValidation)
	setBool(&prefs.Achievements, p.Achievements)
	setBool(&prefs.Challenges, p.Challenges)
	setBool(&prefs.SystemAlerts, p.SystemAlerts)
	setBool(&prefs.Push, p.Push)
	setBool(&prefs.InApp, p.InApp)
	setBool(&prefs.Sound, p.Sound)
	setBool(&prefs.Vibration, p.Vibration)
	setBool(&prefs.DoNotDisturb, p.DoNotDisturb)
	if p.QuietHours != nil {
		prefs.QuietHours = *p.QuietHours
	}
	return prefs
}

// SystemStatus aggregates device and connectivity flags surfaced to the UI.
// Mutated through Center.UpdateSystemStatus; read-only to consumers.
type SystemStatus struct {
	Online           bool      `json:"online"`
	LocationEnabled  bool      `json:"location_enabled"`
	BatteryOptimized bool      `json:"battery_optimized"`
	BackgroundActive bool      `json:"background_active"`
	ChannelConnected bool      `json:"channel_connected"`
	LastSync         time.Time `json:"last_sync"`
}

// DefaultSystemStatus mirrors the assumptions a freshly started client makes
// before any probe has reported.
func DefaultSystemStatus() SystemStatus {
	return SystemStatus{
		Online:           true,
		BatteryOptimized: true,
	}
}

// SystemStatusPatch is a partial system status update. Nil fields leave the
// current value untouched.
type SystemStatusPatch struct {
	Online           *bool      `json:"online,omitempty"`
	LocationEnabled  *bool      `json:"location_enabled,omitempty"`
	BatteryOptimized *bool      `json:"battery_optimized,omitempty"`
	BackgroundActive *bool      `json:"background_active,omitempty"`
	ChannelConnected *bool      `json:"channel_connected,omitempty"`
	LastSync         *time.Time `json:"last_sync,omitempty"`
}

func (p SystemStatusPatch) apply(s SystemStatus) SystemStatus {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&s.Online, p.Online)
	setBool(&s.LocationEnabled, p.LocationEnabled)
	setBool(&s.BatteryOptimized, p.BatteryOptimized)
	setBool(&s.BackgroundActive, p.BackgroundActive)
	setBool(&s.ChannelConnected, p.ChannelConnected)
	if p.LastSync != nil {
		s.LastSync = *p.LastSync
	}
	return s
}
