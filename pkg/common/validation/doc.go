// Package validation provides common validation utilities for construction
// parameters across the rxflow library.
//
// Constructors use these helpers to fail fast with consistent
// *errors.ValidationError values instead of panicking or silently
// substituting defaults.
package validation
