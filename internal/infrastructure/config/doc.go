// Package config owns the persisted bluectl configuration file.
//
// The file is TOML: a single top-level table of settings plus one
// [[registered_devices]] array of tables, with optional [daemon], [history],
// [mqtt], [influxdb] and [logging] sections used by the watch daemon:
//
//	default_device = "AA:BB:CC:DD:EE:FF"
//	auto_connect = true
//	connection_timeout = 30
//
//	[[registered_devices]]
//	name = "Mouse"
//	address = "AA:BB:CC:DD:EE:FF"
//	device_type = "Peripheral"
//	last_connected = "2026-08-20T18:04:05Z"
//
// # Loading
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Hardcoded defaults
//  2. File values
//  3. Environment variables (BLUECTL_SECTION_KEY)
//
// A missing file is not an error: first runs start from defaults and the
// CLI persists the file on the first mutating command.
//
// # Saving
//
// Save is atomic: the file is written to a temporary sibling and renamed
// into place, so a crash mid-write never corrupts the registry. There is
// no autosave; callers load once per invocation, mutate in memory, and
// save once at the end. Concurrent processes racing on the same file are
// not coordinated: last writer wins.
package config
