package bluetooth

import "time"

// DeviceType classifies a device by its Class of Device major class.
type DeviceType string

// Device types persisted in the registry and derived from live devices.
const (
	DeviceTypePeripheral DeviceType = "Peripheral"
	DeviceTypeAudioVideo DeviceType = "Audio/Video"
	DeviceTypeComputer   DeviceType = "Computer"
	DeviceTypePhone      DeviceType = "Phone"
	DeviceTypeUnknown    DeviceType = "Unknown"
)

// AllDeviceTypes returns every recognised device type.
func AllDeviceTypes() []DeviceType {
	return []DeviceType{
		DeviceTypePeripheral,
		DeviceTypeAudioVideo,
		DeviceTypeComputer,
		DeviceTypePhone,
		DeviceTypeUnknown,
	}
}

// IsValid reports whether the device type is one of the recognised values.
func (t DeviceType) IsValid() bool {
	switch t {
	case DeviceTypePeripheral, DeviceTypeAudioVideo, DeviceTypeComputer, DeviceTypePhone, DeviceTypeUnknown:
		return true
	}
	return false
}

// Class-of-Device major device class values (bits 8-12 of the CoD field).
// See the Bluetooth assigned numbers, "Baseband".
const (
	codMajorComputer   = 0x01
	codMajorPhone      = 0x02
	codMajorAudioVideo = 0x04
	codMajorPeripheral = 0x05

	codMajorShift = 8
	codMajorMask  = 0x1F
)

// DeviceTypeFromClass maps a raw Class of Device value, as reported by the
// OS Bluetooth stack, to a DeviceType. Unrecognised major classes map to
// DeviceTypeUnknown.
func DeviceTypeFromClass(class uint32) DeviceType {
	switch (class >> codMajorShift) & codMajorMask {
	case codMajorComputer:
		return DeviceTypeComputer
	case codMajorPhone:
		return DeviceTypePhone
	case codMajorAudioVideo:
		return DeviceTypeAudioVideo
	case codMajorPeripheral:
		return DeviceTypePeripheral
	}
	return DeviceTypeUnknown
}

// LiveDevice is an ephemeral snapshot of a device as reported by the OS
// Bluetooth layer. It is never persisted; it exists only to be reconciled
// against registry entries during list/status/connect.
type LiveDevice struct {
	Address   Address
	Name      string
	Type      DeviceType
	Paired    bool
	Connected bool
}

// Status is the live link status of a single device.
type Status string

// Live statuses reported by Adapter.Status.
const (
	// StatusConnected means the OS reports an active link.
	StatusConnected Status = "connected"

	// StatusDisconnected means the OS knows the device but reports no link.
	StatusDisconnected Status = "disconnected"

	// StatusUnknown means the device is not visible to the OS at all
	// (never paired, or the radio is off).
	StatusUnknown Status = "unknown"
)

// OutcomeCode enumerates the result variants of a connect or disconnect
// attempt.
type OutcomeCode string

// Outcome codes.
const (
	OutcomeSucceeded             OutcomeCode = "succeeded"
	OutcomeAlreadyInDesiredState OutcomeCode = "already_in_desired_state"
	OutcomeTimedOut              OutcomeCode = "timed_out"
	OutcomeDeviceNotFound        OutcomeCode = "device_not_found"
	OutcomeAdapterUnavailable    OutcomeCode = "adapter_unavailable"
	OutcomeRejected              OutcomeCode = "rejected"
)

// Outcome is the result of a connect or disconnect attempt against the
// adapter gateway. Reason carries detail for rejected attempts and is
// empty otherwise.
type Outcome struct {
	Code   OutcomeCode
	Reason string
}

// Convenience constructors for the fixed outcome variants.
var (
	Succeeded             = Outcome{Code: OutcomeSucceeded}
	AlreadyInDesiredState = Outcome{Code: OutcomeAlreadyInDesiredState}
	TimedOut              = Outcome{Code: OutcomeTimedOut}
	DeviceNotFound        = Outcome{Code: OutcomeDeviceNotFound}
	AdapterUnavailable    = Outcome{Code: OutcomeAdapterUnavailable}
)

// Rejected returns a rejected outcome carrying the gateway's reason.
func Rejected(reason string) Outcome {
	return Outcome{Code: OutcomeRejected, Reason: reason}
}

// Ok reports whether the outcome leaves the device in the desired state.
// Both Succeeded and AlreadyInDesiredState count as success for exit codes.
func (o Outcome) Ok() bool {
	return o.Code == OutcomeSucceeded || o.Code == OutcomeAlreadyInDesiredState
}

// String renders the outcome for display, including the rejection reason
// when present.
func (o Outcome) String() string {
	if o.Code == OutcomeRejected && o.Reason != "" {
		return string(o.Code) + ": " + o.Reason
	}
	return string(o.Code)
}

// DefaultConnectTimeout is used when the registry has no explicit
// connection_timeout configured.
const DefaultConnectTimeout = 30 * time.Second
