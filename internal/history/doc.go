// Package history persists a log of connection events in SQLite.
//
// Every connect and disconnect, successful or failed, appends one row
// to the connection_events table. The log answers "when did this
// headset last drop" without depending on the registry's single
// last_connected stamp, and the watch daemon prunes entries past the
// configured retention so the file stays small.
//
// Recording is best-effort by contract: callers treat a failed insert
// as a logged warning, never as a failed connect.
package history
