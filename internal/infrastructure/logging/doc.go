// Package logging provides structured logging for bluectl.
//
// This package wraps Go's standard log/slog package so every component
// logs through the same structured interface.
//
// Command output (device tables, outcomes) goes to stdout; logs always
// stay on a separate stream so scripting against bluectl's output works.
// Text format is the default for interactive use, JSON for the watch
// daemon feeding a collector.
//
// Logging is configured via the [logging] section of config.toml:
//
//	[logging]
//	level = "info"    # debug, info, warn, error
//	format = "text"   # text, json
//	output = "stderr" # stderr, stdout
package logging
