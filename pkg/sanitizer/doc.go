// Package sanitizer normalizes identifiers and free text arriving from collaborators
// before validation and storage.
//
// All functions are idempotent. Invalid input is returned in a normalized form rather than
// rejected; rejecting is the validator's job.
//
// Normalization includes:
//   - Item ids: trimmed, inner whitespace replaced by '-', uppercased ("fl 100" becomes "FL-100")
//   - User ids: trimmed
//   - Item kinds: trimmed, lowercased
//   - Names: whitespace collapsed
//   - Slices: normalized, deduplicated, empties dropped
package sanitizer
