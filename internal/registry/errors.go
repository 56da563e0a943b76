package registry

import "errors"

// Domain errors for the registry package.
//
// These indicate a caller/state mismatch and are always recoverable by a
// corrective command (register, set-default). Check with errors.Is().
var (
	// ErrDeviceNotRegistered is returned when an operation references an
	// address that has no DeviceRecord.
	ErrDeviceNotRegistered = errors.New("registry: device not registered")

	// ErrNameTooLong is returned when a device name exceeds the bound.
	ErrNameTooLong = errors.New("registry: name too long")

	// ErrNoDefaultDevice is returned when an operation needs the default
	// device and none is configured.
	ErrNoDefaultDevice = errors.New("registry: no default device configured")
)
