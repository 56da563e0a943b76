// Package bluetooth defines the shared Bluetooth value types and the
// adapter gateway contract for bluectl.
//
// # Key Types
//
//   - Address: validated 6-byte Bluetooth hardware address
//   - DeviceType: coarse device classification (peripheral, audio, ...)
//   - LiveDevice: ephemeral OS-reported device snapshot, never persisted
//   - Status: live link status of a single device
//   - Outcome: result of a connect or disconnect attempt
//   - Adapter: the capability boundary to the OS Bluetooth stack
//
// The package holds no state and touches no hardware. The real BlueZ
// implementation of Adapter lives in internal/bluez; MockAdapter in this
// package provides a deterministic stand-in so the connection manager can
// be exercised fully in tests.
//
// # Design
//
// Address follows parse-don't-validate: malformed input is rejected at
// construction and every internal consumer carries the value type, so the
// invalid-address check exists at exactly one boundary.
//
// Outcome is deliberately not an error. An error means the caller did
// something wrong (unregistered device, no default configured); an Outcome
// reports what the environment did with a well-formed request (timed out,
// rejected, radio off). The CLI maps both onto exit codes.
package bluetooth
