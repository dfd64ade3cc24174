// Package config loads typed configuration structs from environment variables.
//
// It wraps github.com/caarlos0/env with optional .env file support via
// godotenv and per-type caching, so every package in the module declares its
// own Config struct with `env:` tags and loads it with a single call:
//
//	cfg, err := config.Load[realtime.Config]()
//
// Caching guarantees that all consumers of the same configuration type see
// identical values for the lifetime of the process.
package config
