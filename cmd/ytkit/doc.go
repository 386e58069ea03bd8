// Package main hosts the ytkit CLI entrypoint and command graph.
//
// The Cobra command tree exposes the identifier matcher (match), the tag
// propagator (tags), the run ledger (history), and the yt-dlp helpers that
// produce the files both engines reconcile (urls, audio, subs). Engine
// commands run through a jobs.Runner so every mutation holds the per-root
// lock, reports progress on stderr, and stops cleanly on SIGINT or SIGTERM.
//
// Keep this package thin: behaviour lives in internal packages and commands
// only parse flags, call them, and render results.
package main
