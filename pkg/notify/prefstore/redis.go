package prefstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mobilitylabs/tripkit/pkg/notify"
)

// RedisConfig describes the Redis connection used by RedisStorage.
type RedisConfig struct {
	ConnectionURL  string        `env:"PREFSTORE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"PREFSTORE_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"PREFSTORE_REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"PREFSTORE_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"PREFSTORE_REDIS_KEY_PREFIX" envDefault:"tripkit"`
}

var (
	// ErrInvalidRedisURL indicates the connection URL could not be parsed.
	ErrInvalidRedisURL = errors.New("invalid redis connection URL")
	// ErrRedisNotReady indicates the server did not answer within the
	// configured retry budget.
	ErrRedisNotReady = errors.New("redis is not ready")
)

// ConnectRedis establishes a Redis connection with retry, mirroring the
// startup behavior expected from a preference backend: either the store is
// usable or construction fails loudly.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisStorage persists preferences as a JSON value under a single key.
type RedisStorage struct {
	client *redis.Client
	key    string
}

// NewRedisStorage creates a preference store over an established client.
// keyPrefix namespaces the entry, e.g. "tripkit:user-42".
func NewRedisStorage(client *redis.Client, keyPrefix string) *RedisStorage {
	key := preferencesKey
	if keyPrefix != "" {
		key = keyPrefix + ":" + preferencesKey
	}
	return &RedisStorage{client: client, key: key}
}

// Load implements notify.PreferenceStorage.
func (s *RedisStorage) Load(ctx context.Context) (notify.Preferences, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notify.Preferences{}, notify.ErrNoSavedPreferences
		}
		return notify.Preferences{}, fmt.Errorf("reading preferences: %w", err)
	}

	var prefs notify.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return notify.Preferences{}, fmt.Errorf("decoding preferences: %w", err)
	}
	return prefs, nil
}

// Save implements notify.PreferenceStorage.
func (s *RedisStorage) Save(ctx context.Context, prefs notify.Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}
