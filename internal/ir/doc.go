// Package ir holds the declarative description of joins: the JoinSpec a CUE
// file compiles to, the value family pushed through declarative sources, and
// the canonical JSON form used for traces and hashes.
//
// ir imports nothing internal; compiler, harness, store and cli all build on
// it.
//
// Key constraints:
//   - NO float types anywhere: numbers are int64
//   - no null values: a source pushes a string, int, bool, array or object
//   - source names are NFC-normalised, so visually identical names are one
//     source
//   - all JSON tags use snake_case
package ir
