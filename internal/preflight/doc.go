// Package preflight checks that ytkit can do its work before a run starts:
// the external binaries the download commands need, and read/write access to
// the directories every command writes into.
//
// The CLI "ytkit status" command prints every check; download commands call
// CheckSystemDeps to fail fast with an install hint.
package preflight
