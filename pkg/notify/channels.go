package notify

import (
	"context"
	"time"
)

// Alert is a platform push-style notification rendered outside the app.
type Alert struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
}

// AlertSink posts platform alerts. Implemented by the app shell on top of
// whatever notification API the platform offers.
type AlertSink interface {
	Alert(ctx context.Context, a Alert) error
}

// AudioSink plays short tones. Implemented by the app shell.
type AudioSink interface {
	PlayTone(ctx context.Context, frequencyHz int, duration time.Duration) error
}

// HapticSink drives the device vibration motor with an on/off millisecond
// pattern. Implemented by the app shell where the capability exists.
type HapticSink interface {
	Vibrate(ctx context.Context, pattern []int) error
}

// defaultToneDuration matches the short confirmation blip the product uses.
const defaultToneDuration = 200 * time.Millisecond

// PushDeliverer posts a platform alert when push is both permitted and
// enabled. Critical notifications require interaction to dismiss.
type PushDeliverer struct {
	sink AlertSink
}

// NewPushDeliverer creates a push channel over the given sink.
func NewPushDeliverer(sink AlertSink) *PushDeliverer {
	return &PushDeliverer{sink: sink}
}

func (p *PushDeliverer) Name() string { return "push" }

func (p *PushDeliverer) Deliver(ctx context.Context, n Notification, d Delivery) error {
	if p.sink == nil || !d.PushGranted || !d.Preferences.Push {
		return nil
	}
	return p.sink.Alert(ctx, Alert{
		Title:              n.Title,
		Body:               n.Message,
		Tag:                string(n.Category),
		RequireInteraction: n.Priority.RequiresInteraction(),
	})
}

// ToneDeliverer plays a priority-pitched tone when sound is enabled.
type ToneDeliverer struct {
	sink     AudioSink
	duration time.Duration
}

// NewToneDeliverer creates a sound channel over the given sink.
func NewToneDeliverer(sink AudioSink) *ToneDeliverer {
	return &ToneDeliverer{sink: sink, duration: defaultToneDuration}
}

func (t *ToneDeliverer) Name() string { return "sound" }

func (t *ToneDeliverer) Deliver(ctx context.Context, n Notification, d Delivery) error {
	if t.sink == nil || !d.Preferences.Sound {
		return nil
	}
	return t.sink.PlayTone(ctx, n.Priority.ToneFrequency(), t.duration)
}

// VibrationDeliverer pulses the haptic motor with the priority pattern when
// vibration is enabled. A nil sink means the capability is unavailable and
// the channel is a no-op.
type VibrationDeliverer struct {
	sink HapticSink
}

// NewVibrationDeliverer creates a vibration channel over the given sink.
func NewVibrationDeliverer(sink HapticSink) *VibrationDeliverer {
	return &VibrationDeliverer{sink: sink}
}

func (v *VibrationDeliverer) Name() string { return "vibration" }

func (v *VibrationDeliverer) Deliver(ctx context.Context, n Notification, d Delivery) error {
	if v.sink == nil || !d.Preferences.Vibration {
		return nil
	}
	return v.sink.Vibrate(ctx, n.Priority.VibrationPattern())
}
