// Package connmgr provides the Bluetooth connection manager for bluectl.
//
// The manager reconciles the persisted device registry with live
// OS-reported device state and sequences connect/disconnect operations
// against the adapter gateway with the configured timeout semantics.
//
// # State machine
//
// Each device moves independently through:
//
//	Unregistered → Registered/Disconnected → Connecting → Connected
//	                       ▲                     │
//	                       └──── on failure ─────┘
//	Connected → Disconnecting → Registered/Disconnected
//
// There is no global one-connection-at-a-time constraint; if the radio
// enforces one, that surfaces through the adapter gateway as a rejected
// outcome.
//
// # Failure semantics
//
// A connect that times out, is rejected, or finds the adapter unavailable
// leaves the device disconnected, leaves last_connected untouched, and
// surfaces the outcome verbatim. The manager never retries on its own;
// retry is an explicit caller decision, which keeps every failure
// observable.
//
// # Bulk disconnect
//
// Disconnecting without a target disconnects every registered device the
// gateway currently reports connected, dispatching gateway calls
// concurrently across devices and returning one outcome per address. A
// failure on one device never masks the result for another.
package connmgr
