// Package id provides unique identifier generation utilities.
//
// This is the canonical source for ID generation across the mockdeck codebase.
// It provides several ID formats for different use cases:
//
//   - UUID: Standard UUID v4 (random) for general-purpose unique identifiers
//   - Short: 16-character hex IDs for user-facing contexts where brevity matters
//   - TimeRand: decimal unix-millisecond IDs with a random offset, strictly
//     increasing within a process, used for environment identifiers and for
//     re-iding imported records
//
// All ID generation functions use crypto/rand for secure randomness.
package id
