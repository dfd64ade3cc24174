// Package livesync glues the realtime channel to the notification core.
//
// A Bridge owns a realtime.Manager and translates its traffic for a
// notify.Center: trip, achievement and challenge updates become
// notifications, sync_complete bumps the last-sync timestamp, and connection
// state transitions are mirrored into SystemStatus.ChannelConnected along
// with low-priority sync notifications ("Connected to Server", "Connection
// Lost").
//
//	bridge := livesync.New(center, realtime.NewWebsocketDialer(cfg.URL),
//	    livesync.WithConfig(cfg),
//	)
//	bridge.Connect()
//	defer bridge.Close()
package livesync
