// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"scenefilter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.BundledDBPath = filepath.Join(base, "segments.json")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Logging.Format = "json"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSafeMode overrides the safety mode on the test config.
func WithSafeMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Filter.SafeMode = mode
	}
}

// WithCommunitySync enables community database sync with the given sources.
func WithCommunitySync(sources ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Community.SyncEnabled = true
		cfg.Community.Sources = sources
	}
}
