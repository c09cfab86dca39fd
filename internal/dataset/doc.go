// Package dataset keeps the normalized company table in memory and reloads it
// when the file on disk changes.
//
// A Cache is opened once at startup. Handlers call Snapshot per request and
// work on the returned immutable records.
package dataset
