package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	cacheMu sync.RWMutex
	cache   = make(map[string]any)
)

// Load populates a configuration struct from environment variables using
// `env:` struct tags. A .env file in the working directory is loaded once per
// process before the first parse; its absence is not an error.
//
// Each configuration type is parsed once and cached, so repeated calls are
// cheap and always observe the same values.
//
// Example:
//
//	type Config struct {
//	    URL           string        `env:"REALTIME_URL" envDefault:"wss://localhost/ws"`
//	    HeartbeatTick time.Duration `env:"REALTIME_HEARTBEAT" envDefault:"5s"`
//	}
//
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	var cfg T
	key := typeName[T]()

	cacheMu.RLock()
	cached, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		return cached.(T), nil
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	// First writer wins so concurrent loaders agree on a single value.
	if cached, ok := cache[key]; ok {
		cfg = cached.(T)
	} else {
		cache[key] = cfg
	}
	cacheMu.Unlock()

	return cfg, nil
}

// MustLoad is like Load but panics on failure. Intended for process startup
// where a missing required variable should stop the application.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(err)
	}
	return cfg
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.PkgPath() == "" {
		return t.String()
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}
