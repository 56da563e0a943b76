// Package mqtt publishes Bluetooth connection state to an MQTT broker.
//
// Only the watch daemon uses this package. Every observed connect or
// disconnect is published retained to a per-device state topic, so home
// automation subscribers (or a dashboard) always see the current state
// without waiting for the next transition:
//
//	bluectl/device/AA:BB:CC:DD:EE:FF/state
//	bluectl/status
//
// The client wraps paho.mqtt.golang with auto-reconnect and a Last Will
// so subscribers can tell a crashed daemon from a silent one. All
// methods are safe for concurrent use.
package mqtt
