// Package daemon coordinates the long-running SceneFilter process.
//
// It wires configuration, the segment store, the catalog service, and the
// playback tracker into a single lifecycle with flock-based locking to
// prevent multiple instances, and serves the local HTTP JSON API that
// player integrations and the CLI talk to. Heuristic detectors attach per
// viewing context and feed their candidates back into the store.
//
// Keep orchestration logic here: segment semantics live in their own
// packages while the daemon focuses on startup, shutdown, and transport.
package daemon
