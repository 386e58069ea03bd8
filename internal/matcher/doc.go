// Package matcher pairs media files with caption files that share a bracketed
// 11-character identifier and renames the media to the caption's base name.
//
// Scan builds a fresh Plan from the directory listing, ranking candidate
// captions by an ordered language preference list. Apply executes the plan's
// Ready rows under a collision policy and records every operation in a JSON
// undo log inside the scanned folder; Undo replays that log in reverse. Per-row
// failures are recorded as data and never abort the batch.
package matcher
