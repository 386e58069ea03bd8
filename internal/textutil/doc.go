// Package textutil canonicalizes human titles into comparison keys and safe
// filename stems.
//
// The primary use cases are:
//   - Building a slug that compares equal across cosmetic title differences
//     (case, diacritics, punctuation, compatibility forms)
//   - Turning a raw title into a filename stem that every common filesystem accepts
//
// Both functions are pure and total: they never fail and always return a
// non-empty string, falling back to "unknown".
package textutil
