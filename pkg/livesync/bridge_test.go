package livesync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilitylabs/tripkit/pkg/livesync"
	"github.com/mobilitylabs/tripkit/pkg/notify"
	"github.com/mobilitylabs/tripkit/pkg/realtime"
)

func newTestBridge(t *testing.T, dialer realtime.Dialer, opts ...livesync.Option) (*livesync.Bridge, *notify.Center) {
	t.Helper()

	center, err := notify.NewCenter(context.Background())
	require.NoError(t, err)
	t.Cleanup(center.Close)

	opts = append([]livesync.Option{livesync.WithConfig(realtime.Config{
		HeartbeatInterval:  time.Hour,
		BaseReconnectDelay: 5 * time.Millisecond,
		MaxAttempts:        3,
		DialTimeout:        time.Second,
	})}, opts...)
	bridge := livesync.New(center, dialer, opts...)
	t.Cleanup(bridge.Close)
	return bridge, center
}

func connectBridge(t *testing.T, bridge *livesync.Bridge, center *notify.Center) {
	t.Helper()

	bridge.Connect()
	require.Eventually(t, func() bool {
		return center.SystemStatus().ChannelConnected
	}, 2*time.Second, 2*time.Millisecond)
}

func findByTitle(notifications []notify.Notification, title string) *notify.Notification {
	for i := range notifications {
		if notifications[i].Title == title {
			return &notifications[i]
		}
	}
	return nil
}

func TestBridge_OpenReflectsIntoSystemStatus(t *testing.T) {
	t.Parallel()

	bridge, center := newTestBridge(t, &realtime.ChaosDialer{})
	connectBridge(t, bridge, center)

	status := center.SystemStatus()
	assert.True(t, status.ChannelConnected)
	assert.False(t, status.LastSync.IsZero())

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Connected to Server") != nil
	}, time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Connected to Server")
	assert.Equal(t, notify.CategorySyncStatus, n.Category)
	assert.Equal(t, notify.PriorityLow, n.Priority)
	assert.True(t, n.NoBanner)
	assert.Nil(t, center.ActiveBanner())
}

func TestBridge_TripUpdateBecomesNotification(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)

	dialer.Conn().InjectEnvelope(realtime.TypeTripUpdate, map[string]any{
		"origin":      "Home",
		"destination": "Office",
		"trip":        map[string]any{"distance_km": 12.5},
	})

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Trip Detected") != nil
	}, time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Trip Detected")
	assert.Equal(t, notify.CategoryTripValidation, n.Category)
	assert.Equal(t, notify.PriorityHigh, n.Priority)
	assert.Equal(t, "New trip from Home to Office", n.Message)
	assert.Equal(t, 12.5, n.Data["distance_km"])

	// High priority and banner-eligible.
	banner := center.ActiveBanner()
	require.NotNil(t, banner)
	assert.Equal(t, "Trip Detected", banner.Notification.Title)
}

func TestBridge_AchievementUpdateBecomesNotification(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)

	dialer.Conn().InjectEnvelope(realtime.TypeAchievementUpdate, map[string]any{
		"achievement": map[string]any{"name": "Early Bird"},
	})

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Achievement Unlocked!") != nil
	}, time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Achievement Unlocked!")
	assert.Equal(t, notify.CategoryAchievement, n.Category)
	assert.Equal(t, notify.PriorityHigh, n.Priority)
	assert.Equal(t, `You earned "Early Bird"`, n.Message)
}

func TestBridge_ChallengeUpdateBecomesNotification(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)

	dialer.Conn().InjectEnvelope(realtime.TypeChallengeUpdate, map[string]any{
		"message":   "You moved up to 2nd place",
		"challenge": map[string]any{"id": "weekly-cycling"},
	})

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Challenge Update") != nil
	}, time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Challenge Update")
	assert.Equal(t, notify.CategoryChallenge, n.Category)
	assert.Equal(t, notify.PriorityMedium, n.Priority)
	assert.Equal(t, "You moved up to 2nd place", n.Message)
}

func TestBridge_SyncCompleteUpdatesLastSync(t *testing.T) {
	t.Parallel()

	syncedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer, livesync.WithClock(func() time.Time { return syncedAt }))
	connectBridge(t, bridge, center)

	before := len(center.Notifications())
	dialer.Conn().InjectEnvelope(realtime.TypeSyncComplete, nil)

	require.Eventually(t, func() bool {
		return center.SystemStatus().LastSync.Equal(syncedAt)
	}, time.Second, 2*time.Millisecond)

	// Sync completion is a status change, not a notification.
	assert.Len(t, center.Notifications(), before)
}

func TestBridge_DropRaisesConnectionLost(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)

	dialer.Conn().Drop()

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Connection Lost") != nil
	}, time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Connection Lost")
	assert.Equal(t, notify.PriorityMedium, n.Priority)
	assert.Equal(t, "Attempting to reconnect...", n.Message)
	assert.True(t, n.NoBanner)
}

func TestBridge_ExhaustedReconnectsRaiseConnectionError(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{FailFirst: 100}
	bridge, center := newTestBridge(t, dialer)

	bridge.Connect()

	require.Eventually(t, func() bool {
		return findByTitle(center.Notifications(), "Connection Error") != nil
	}, 2*time.Second, 2*time.Millisecond)

	n := findByTitle(center.Notifications(), "Connection Error")
	assert.Equal(t, notify.CategorySyncStatus, n.Category)
	assert.Equal(t, "Failed to connect to server", n.Message)
	assert.False(t, center.SystemStatus().ChannelConnected)
	assert.Equal(t, realtime.ReasonMaxAttempts, bridge.Status().Reason)
}

func TestBridge_ManualDisconnectStaysQuiet(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)

	bridge.Disconnect()

	require.Eventually(t, func() bool {
		return !center.SystemStatus().ChannelConnected
	}, time.Second, 2*time.Millisecond)

	// A deliberate disconnect raises neither loss nor error notifications.
	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, findByTitle(center.Notifications(), "Connection Lost"))
	assert.Nil(t, findByTitle(center.Notifications(), "Connection Error"))
}

func TestBridge_MalformedPayloadIgnored(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, center := newTestBridge(t, dialer)
	connectBridge(t, bridge, center)
	before := len(center.Notifications())

	// Envelope type parses but the payload shape does not.
	dialer.Conn().InjectEnvelope(realtime.TypeTripUpdate, map[string]any{"trip": "not-an-object"})
	dialer.Conn().InjectEnvelope("weather_report", nil)

	time.Sleep(30 * time.Millisecond)
	assert.Len(t, center.Notifications(), before)
}

func TestBridge_SendQueuesWhileDown(t *testing.T) {
	t.Parallel()

	dialer := &realtime.ChaosDialer{}
	bridge, _ := newTestBridge(t, dialer)

	require.NoError(t, bridge.Send(map[string]any{"type": "trip_update"}))
	assert.Equal(t, 1, bridge.Status().QueuedMessages)
}
