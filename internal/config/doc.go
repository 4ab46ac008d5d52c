// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and the CLI.
//
// Load applies three passes: decode over defaults, normalize (path
// expansion, case folding, environment fallbacks), then validate. A missing
// config file is not an error; defaults make a usable local setup. The
// embedded sample_config.toml documents every field and backs the
// `scenefilter config init` command.
package config
