// Package daemon implements the watch mode: a long-running process that
// observes Bluetooth connection transitions and fans them out.
//
// The daemon subscribes to BlueZ PropertiesChanged signals and, for each
// Connected transition on a registered device:
//
//   - appends an observed event to the connection history
//   - publishes the new state retained to MQTT, if configured
//   - writes the event (and, on disconnect, the session duration)
//     to InfluxDB, if configured
//   - schedules a reconnect of the default device when it drops,
//     if auto_connect and reconnect_default are both enabled
//
// Transitions for unregistered devices are ignored: the daemon watches
// the registry's devices, not the whole neighbourhood.
//
// All sinks are optional and best-effort. A broker outage or a full
// disk degrades the daemon to a logger, never to a crash.
package daemon
