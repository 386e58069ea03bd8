// Package history persists a ledger of engine runs in SQLite.
//
// Every apply, undo, and revert records one Run with its counts and the log
// it wrote or consumed, so a later invocation can find "the last tags apply"
// without the caller remembering a CSV path. The store uses modernc.org/sqlite
// in WAL mode and retries briefly when another process holds the write lock.
package history
