package realtime_test

import (
	"fmt"
	"time"

	"github.com/mobilitylabs/tripkit/pkg/realtime"
)

func ExampleNewManager() {
	dialer := &realtime.ChaosDialer{}

	m := realtime.NewManager(dialer,
		realtime.WithConfig(realtime.Config{
			HeartbeatInterval:  5 * time.Second,
			BaseReconnectDelay: time.Second,
			MaxAttempts:        5,
		}),
		realtime.WithMessageHandler(func(msg realtime.Message) {
			fmt.Println("received", msg.Type)
		}),
	)
	defer m.Close()

	// Queued until the channel opens, then flushed in order.
	_ = m.Send(map[string]any{"type": "trip_update"})

	m.Connect()
	for dialer.Conn() == nil || len(dialer.Conn().SentTypes()) == 0 {
		time.Sleep(time.Millisecond)
	}

	fmt.Println(dialer.Conn().SentTypes())
	// Output: [trip_update]
}

func ExampleManager_Status() {
	m := realtime.NewManager(&realtime.ChaosDialer{})
	defer m.Close()

	status := m.Status()
	fmt.Println(status.State, status.Connected())
	// Output: idle false
}
