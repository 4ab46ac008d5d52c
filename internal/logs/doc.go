// Package logs reads the daemon log file for the CLI logs command. It
// supports one-shot tails of the most recent lines as well as follow mode,
// where reads resume from a remembered byte offset.
package logs
