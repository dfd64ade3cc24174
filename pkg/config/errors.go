package config

import "errors"

var (
	// ErrParsingConfig indicates environment variables could not be parsed
	// into the target struct (missing required values, type mismatches).
	ErrParsingConfig = errors.New("failed to parse config from environment")
)
