package bluetooth

import (
	"context"
	"time"
)

// Adapter is the capability boundary to the OS Bluetooth stack.
//
// The connection manager's timeout and idempotency logic is built around
// this contract; implementations must honour it:
//
//   - Enumerate returns every device the OS Bluetooth layer currently
//     knows (paired and/or discoverable). An empty slice is a valid
//     result. When the radio is off or the Bluetooth service is not
//     reachable, it fails with an error wrapping ErrAdapterUnavailable;
//     a recoverable condition the manager surfaces, never a crash.
//
//   - Connect blocks until success, definitive rejection, or the given
//     timeout elapses; there is no cancellation mid-flight beyond the
//     timeout bound. Connecting an already-connected device yields
//     AlreadyInDesiredState, not an error.
//
//   - Disconnect follows the same idempotency rule for already
//     disconnected devices.
//
//   - Status returns StatusUnknown when the device is not visible to the
//     OS at all (never paired, or radio off); it does not fail for that.
//
// Environmental results (timeout, rejection, radio off) are reported as
// Outcome values, not errors. Errors are reserved for conditions that make
// the call itself meaningless, such as a closed adapter handle.
type Adapter interface {
	Enumerate(ctx context.Context) ([]LiveDevice, error)
	Connect(ctx context.Context, addr Address, timeout time.Duration) Outcome
	Disconnect(ctx context.Context, addr Address) Outcome
	Status(ctx context.Context, addr Address) Status
}
