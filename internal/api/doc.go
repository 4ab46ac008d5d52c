// Package api implements the workflow layer shared by the daemon's HTTP
// handlers and the CLI. Each workflow composes the segment store, the
// catalog service, and the trust pipeline into one operation with a
// transport-friendly result.
package api
