// Package batch defines the vocabulary shared by the rename engines: the
// collision policy enum, progress reports, and the succeeded/skipped/errored
// summary every batch operation returns.
package batch
