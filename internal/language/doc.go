// Package language provides language code normalization and the ordered
// caption-language preference lists used when pairing media with captions.
//
// All language-related lookups (ISO 639-1/639-2 mapping, display names, the
// fixed set of codes recognized as caption filename suffixes) live here so the
// matcher, the downloader, and the CLI agree on one vocabulary.
package language
