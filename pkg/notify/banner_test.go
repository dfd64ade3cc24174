package notify_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilitylabs/tripkit/pkg/notify"
)

func TestBanner_OnlyHighAndCriticalQualify(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)

	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityLow, Title: "low"})
	assert.Nil(t, center.ActiveBanner())

	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityMedium, Title: "medium"})
	assert.Nil(t, center.ActiveBanner())

	center.Add(notify.Notification{Category: notify.CategoryAchievement, Priority: notify.PriorityHigh, Title: "high"})
	banner := center.ActiveBanner()
	require.NotNil(t, banner)
	assert.Equal(t, "high", banner.Notification.Title)
}

func TestBanner_NoBannerFlagExcludes(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	center.Add(notify.Notification{
		Category: notify.CategorySyncStatus,
		Priority: notify.PriorityHigh,
		Title:    "silent",
		NoBanner: true,
	})
	assert.Nil(t, center.ActiveBanner())
}

func TestBanner_NewerHighReplacesCurrent(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "first"})
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "second"})

	banner := center.ActiveBanner()
	require.NotNil(t, banner)
	assert.Equal(t, "second", banner.Notification.Title)
}

func TestBanner_AutoDismissMarksRead(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t, notify.WithBannerTimeout(30*time.Millisecond))
	center.Add(notify.Notification{Category: notify.CategoryTripValidation, Priority: notify.PriorityHigh, Title: "trip"})

	require.NotNil(t, center.ActiveBanner())

	require.Eventually(t, func() bool {
		return center.ActiveBanner() == nil
	}, time.Second, 5*time.Millisecond)

	list := center.Notifications()
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
	assert.Equal(t, 0, center.UnreadCount())
}

func TestBanner_CriticalNeverAutoDismisses(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t, notify.WithBannerTimeout(20*time.Millisecond))
	center.Add(notify.Notification{Category: notify.CategorySystemStatus, Priority: notify.PriorityCritical, Title: "offline"})

	require.NotNil(t, center.ActiveBanner())
	time.Sleep(100 * time.Millisecond)

	banner := center.ActiveBanner()
	require.NotNil(t, banner)
	assert.Equal(t, "offline", banner.Notification.Title)
	assert.False(t, center.Notifications()[0].Read)
}

func TestBanner_ManualDismiss(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "dismiss me"})
	require.NotNil(t, center.ActiveBanner())

	center.DismissBanner()

	assert.Nil(t, center.ActiveBanner())
	assert.True(t, center.Notifications()[0].Read)

	// Dismissing with no banner is a no-op.
	center.DismissBanner()
	assert.Nil(t, center.ActiveBanner())
}

func TestBanner_StaleTimerDoesNotDismissReplacement(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t, notify.WithBannerTimeout(100*time.Millisecond))
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "first"})

	time.Sleep(50 * time.Millisecond)
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "second"})

	// The first banner's timer window elapses; the replacement keeps its own.
	time.Sleep(60 * time.Millisecond)
	banner := center.ActiveBanner()
	require.NotNil(t, banner)
	assert.Equal(t, "second", banner.Notification.Title)
}

func TestBanner_ActionInvocation(t *testing.T) {
	t.Parallel()

	var invoked atomic.Bool
	center := newTestCenter(t)
	center.Add(notify.Notification{
		Category:    notify.CategoryTripValidation,
		Priority:    notify.PriorityHigh,
		Title:       "Trip Detected",
		ActionLabel: "Validate",
		ActionFunc:  func() { invoked.Store(true) },
	})
	require.NotNil(t, center.ActiveBanner())

	center.InvokeBannerAction()

	require.Eventually(t, invoked.Load, time.Second, 5*time.Millisecond)
	assert.Nil(t, center.ActiveBanner())
	assert.True(t, center.Notifications()[0].Read)

	// No banner left: a second invocation is a no-op.
	center.InvokeBannerAction()
}

func TestBanner_ReadNotificationNeverSelected(t *testing.T) {
	t.Parallel()

	center := newTestCenter(t)
	center.Add(notify.Notification{Category: notify.CategoryGeneral, Priority: notify.PriorityHigh, Title: "seen"})
	center.MarkAllAsRead()

	assert.Nil(t, center.ActiveBanner())
}
