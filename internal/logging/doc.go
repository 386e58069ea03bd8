// Package logging assembles structured slog loggers and formatting helpers used
// across ytkit commands and engines.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and the run-log tee that mirrors CLI output into a JSON
// file under the state directory. Engines receive a *slog.Logger and never
// write to stdout directly; NewNop is the default when callers pass nil.
package logging
