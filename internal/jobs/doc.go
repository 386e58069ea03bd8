// Package jobs runs one engine operation at a time in the background.
//
// A Runner owns a single slot: Start launches the operation on its own
// goroutine and rejects a second Start with ErrBusy until the first
// finishes. When a lock directory is configured the Runner also takes a
// gofrs/flock file lock per (runner name, key) so two ytkit processes cannot
// mutate the same tree concurrently. Progress reaches the caller through a
// buffered channel that never blocks the producer; cancellation is the
// context passed to the operation.
package jobs
