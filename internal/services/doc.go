// Package services defines shared utilities consumed by the segment store,
// the workflow layer, and the daemon.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (retryable vs caller-must-change) uniform across
//     operations.
//   - Context helpers that stamp movie IDs and correlation identifiers for
//     logging.
//
// Use these helpers when wiring new operations so error handling and
// observability stay consistent.
package services
