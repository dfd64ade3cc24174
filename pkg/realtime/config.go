package realtime

import "time"

// Config holds the connection manager settings. Fields can be populated from
// environment variables via pkg/config.
type Config struct {
	URL                string        `env:"REALTIME_URL" envDefault:"wss://localhost/ws"`
	HeartbeatInterval  time.Duration `env:"REALTIME_HEARTBEAT_INTERVAL" envDefault:"5s"`
	BaseReconnectDelay time.Duration `env:"REALTIME_RECONNECT_BASE_DELAY" envDefault:"1s"`
	MaxAttempts        int           `env:"REALTIME_MAX_ATTEMPTS" envDefault:"5"`
	DialTimeout        time.Duration `env:"REALTIME_DIAL_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the product defaults: 5s heartbeat, linear backoff
// from 1s, five attempts.
func DefaultConfig() Config {
	return Config{
		URL:                "wss://localhost/ws",
		HeartbeatInterval:  5 * time.Second,
		BaseReconnectDelay: time.Second,
		MaxAttempts:        5,
		DialTimeout:        10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.BaseReconnectDelay <= 0 {
		c.BaseReconnectDelay = def.BaseReconnectDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	return c
}
