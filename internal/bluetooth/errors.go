package bluetooth

import "errors"

// Domain errors for the bluetooth package.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, bluetooth.ErrInvalidAddress) {
//	    // reject before touching registry or gateway
//	}
var (
	// ErrInvalidAddress is returned when an address string cannot be parsed
	// as a 6-byte colon-separated Bluetooth address.
	ErrInvalidAddress = errors.New("bluetooth: invalid address")

	// ErrAdapterUnavailable is returned when the Bluetooth radio is off,
	// absent, or the OS Bluetooth service is not reachable.
	ErrAdapterUnavailable = errors.New("bluetooth: adapter unavailable")
)
