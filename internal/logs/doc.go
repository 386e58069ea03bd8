// Package logs reads the JSON run log that every ytkit command appends to.
//
// Read returns the last N entries, optionally narrowed to a single run ID so
// the lines behind a history row can be pulled up after the fact. Follow watches
// the file for new entries until its context is cancelled. Memory stays
// bounded by the requested line count regardless of log size.
package logs
