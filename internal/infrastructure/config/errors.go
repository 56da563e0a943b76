package config

import "errors"

// Domain errors for the config package.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid")

	// ErrReadFailed is returned when the configuration file exists but
	// cannot be read or parsed.
	ErrReadFailed = errors.New("config: read failed")

	// ErrWriteFailed is returned when the configuration file cannot be
	// durably written.
	ErrWriteFailed = errors.New("config: write failed")
)
