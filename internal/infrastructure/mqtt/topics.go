package mqtt

import "fmt"

// TopicPrefix is the base for all bluectl topics.
const TopicPrefix = "bluectl"

// Topics provides builders for bluectl MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// DeviceState returns the retained per-device state topic.
//
// Example: bluectl/device/AA:BB:CC:DD:EE:FF/state
func (Topics) DeviceState(address string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefix, address)
}

// DaemonStatus returns the daemon online/offline status topic.
//
// Example: bluectl/status
func (Topics) DaemonStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: bluectl/device/+/state
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/device/+/state", TopicPrefix)
}
