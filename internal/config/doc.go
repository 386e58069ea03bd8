// Package config loads, normalizes, and validates ytkit configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as YTDLP_PATH and
// YTKIT_PROXY. The Config type centralizes every knob the engines, the
// download boundary, and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, dot-prefixed extension sets, and clear validation errors.
package config
