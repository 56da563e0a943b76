// Package database provides the SQLite connection layer for the
// connection history store.
//
// The database is a single local file next to the configuration,
// opened with WAL mode and a busy timeout so a CLI invocation and a
// running watch daemon can share it without lock errors. The schema is
// small enough to bootstrap in place: Open applies it idempotently on
// every start, so there is no separate migration step to run.
package database
