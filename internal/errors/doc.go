// Package errors defines sentinel errors shared across dirvault packages.
//
// Errors are grouped by concern: project state, key lifecycle, bundle
// transforms, and version control. Packages wrap these sentinels with
// fmt.Errorf("%w: ...") so callers can match with errors.Is while still
// surfacing step-specific context.
//
// ErrDecryption is intentionally a single error for every way a bundle can
// fail to open (wrong key, flipped bits, truncation). Splitting it would
// hand an attacker an oracle for which of the two occurred.
package errors
