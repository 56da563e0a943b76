// Package registry provides the in-memory device registry for bluectl.
//
// The registry is the user-curated set of known devices plus the selected
// default device and the global connection settings. It is built from the
// persisted configuration at process start, mutated in memory during a
// single invocation, and flushed back to the configuration for one save
// at the end; there is no autosave and no ambient singleton.
//
// # Key Types
//
//   - DeviceRecord: one registered device (address, name, type, last_connected)
//   - Registry: the record set with its invariants
//
// # Invariants
//
//   - At most one DeviceRecord per address.
//   - The default device, when set, always resolves to a registered
//     record; unregistering the default clears it.
//   - Listing preserves insertion order for deterministic display.
//   - Names are bounded (128 characters) and never empty: a registration
//     without a name gets "Device-" plus the last four hex digits of the
//     address.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The watch daemon touches the
// registry from its signal goroutine while the main loop persists it.
package registry
