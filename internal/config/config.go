package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"scenefilter/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, data file, and bind address configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	BundledDBPath string `toml:"bundled_db_path"`
	APIBind       string `toml:"api_bind"`
}

// Filter contains the playback-filter behaviour settings.
type Filter struct {
	Enabled             bool              `toml:"enabled"`
	SafeMode            string            `toml:"safe_mode"`
	ConfidenceThreshold int               `toml:"confidence_threshold"`
	AdaptiveMode        bool              `toml:"adaptive_mode"`
	AudioOnlyMode       bool              `toml:"audio_only_mode"`
	PreviewBeforeSkip   bool              `toml:"preview_before_skip"`
	AutoSkipDelaySec    int               `toml:"auto_skip_delay_sec"`
	DebugMode           bool              `toml:"debug_mode"`
	CategoryActions     map[string]string `toml:"category_actions"`
}

// Community contains configuration for the crowd-sourced segment database.
type Community struct {
	SyncEnabled     bool     `toml:"sync_enabled"`
	Sources         []string `toml:"sources"`
	CacheTTLMinutes int      `toml:"cache_ttl_minutes"`
	// MatchThreshold is the minimum title-match quality score (0-100) the
	// external movie-search integration must reach before a catalog match
	// is accepted. The matching itself lives outside this module.
	MatchThreshold int `toml:"match_threshold"`
}

// Detector contains tuning for the heuristic signal detector.
type Detector struct {
	Enabled          bool `toml:"enabled"`
	SampleIntervalMs int  `toml:"sample_interval_ms"`

	// SignalWindowSeconds bounds the rolling buffer of raw observations.
	SignalWindowSeconds float64 `toml:"signal_window_seconds"`
	// FusionWindowSeconds is the co-occurrence span for signal fusion. It
	// defaults to the same value as SeekJumpSeconds but the two are
	// independent knobs.
	FusionWindowSeconds float64 `toml:"fusion_window_seconds"`
	// SeekJumpSeconds is the playback-time jump between consecutive samples
	// treated as an implicit seek.
	SeekJumpSeconds float64 `toml:"seek_jump_seconds"`

	InteractionGuardMs int `toml:"interaction_guard_ms"`
	SeekGuardMs        int `toml:"seek_guard_ms"`

	AudioSpikeRatio    float64 `toml:"audio_spike_ratio"`
	AudioFloor         float64 `toml:"audio_floor"`
	AudioWarmupSamples int     `toml:"audio_warmup_samples"`

	SubtitleCooldownMs int `toml:"subtitle_cooldown_ms"`

	VisualDeltaThreshold float64 `toml:"visual_delta_threshold"`

	MaxCandidates int `toml:"max_candidates"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for SceneFilter.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, bundled DB location, API bind address
//   - Filter: safety mode, thresholds, per-category playback actions
//   - Community: crowd-sourced segment database sync
//   - Detector: heuristic signal detector tuning
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Filter    Filter    `toml:"filter"`
	Community Community `toml:"community"`
	Detector  Detector  `toml:"detector"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scenefilter/config.toml")
}

// Sample returns the embedded sample configuration document.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ prefixes and returns an absolute, cleaned path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Encode renders the configuration as a TOML document.
func (c *Config) Encode() (string, error) {
	encoded, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(encoded), nil
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file yields
// the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scenefilter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the segment database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "segments.db")
}

// LockFilePath returns the daemon single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "scenefilterd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
