// Package logging constructs the slog loggers used across the daemon and
// CLI.
//
// Two handler formats are supported: a compact console handler for
// interactive terminals and standard JSON for files and non-TTY output.
// NewFromConfig wires format, level, and the daemon log file from
// application config; NewNop returns a discard logger for tests and
// optional dependencies.
package logging
