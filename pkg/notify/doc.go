// Package notify is the notification core of the tripkit client: a single
// source of truth for the notification list, user preferences and system
// status, plus the policy and side-channel machinery around it.
//
// # Architecture
//
//   - Center: actor-style store. One dispatch goroutine applies every
//     mutation in arrival order; reads are immutable snapshots.
//   - ShouldDeliver: pure suppression policy (do-not-disturb, quiet hours,
//     per-category flags) consulted before a notification is accepted.
//   - Deliverer: side channels (platform push, tone, vibration) fired
//     fire-and-forget after the store mutation commits.
//   - Banner: the single transient surface derived from the list, with
//     auto-dismiss for non-critical priorities.
//   - PreferenceStorage: local key-value persistence for preferences; see
//     pkg/notify/prefstore for SQLite and Redis backends.
//
// # Basic usage
//
//	center, err := notify.NewCenter(ctx,
//	    notify.WithStorage(store),
//	    notify.WithDeliverer(notify.NewMultiDeliverer([]notify.Deliverer{
//	        notify.NewPushDeliverer(alerts),
//	        notify.NewToneDeliverer(audio),
//	        notify.NewVibrationDeliverer(haptics),
//	    })),
//	)
//	if err != nil {
//	    // handle error
//	}
//	defer center.Close()
//
//	center.Add(notify.Notification{
//	    Category: notify.CategoryAchievement,
//	    Priority: notify.PriorityHigh,
//	    Title:    "Achievement Unlocked!",
//	})
//
// Collaborators observe changes through Subscribe or by polling Snapshot;
// they never hold live references into Center state.
package notify
