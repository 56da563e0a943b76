// Package influxdb ships connection metrics to an InfluxDB v2 server.
//
// Only the watch daemon uses this package, and only when the influxdb
// section of config.toml is enabled. Each observed transition becomes a
// point in the connection_events measurement, and completed sessions
// (connect to disconnect) record their duration, which makes "how often
// does this headset drop" a Flux query instead of log archaeology.
//
// Writes are non-blocking and batched by the client library; a down
// server costs the daemon nothing but a logged error.
package influxdb
