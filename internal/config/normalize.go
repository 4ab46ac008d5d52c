package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFilter()
	c.normalizeCommunity()
	c.normalizeDetector()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BundledDBPath) == "" {
		c.Paths.BundledDBPath = defaultBundledDBPath
	}
	if c.Paths.BundledDBPath, err = expandPath(c.Paths.BundledDBPath); err != nil {
		return fmt.Errorf("paths.bundled_db_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeFilter() {
	c.Filter.SafeMode = strings.ToUpper(strings.TrimSpace(c.Filter.SafeMode))
	if c.Filter.SafeMode == "" {
		c.Filter.SafeMode = defaultSafeMode
	}
	if c.Filter.CategoryActions == nil {
		c.Filter.CategoryActions = Default().Filter.CategoryActions
	}
	normalized := make(map[string]string, len(c.Filter.CategoryActions))
	for category, action := range c.Filter.CategoryActions {
		normalized[strings.ToLower(strings.TrimSpace(category))] = strings.ToLower(strings.TrimSpace(action))
	}
	c.Filter.CategoryActions = normalized
	if c.Filter.AutoSkipDelaySec < 0 {
		c.Filter.AutoSkipDelaySec = 0
	}
	if c.Filter.AutoSkipDelaySec > 10 {
		c.Filter.AutoSkipDelaySec = 10
	}
}

func (c *Config) normalizeCommunity() {
	sources := make([]string, 0, len(c.Community.Sources))
	for _, source := range c.Community.Sources {
		source = strings.TrimSpace(source)
		if source != "" {
			sources = append(sources, source)
		}
	}
	if len(sources) == 0 {
		sources = append(sources, defaultCommunitySources...)
	}
	c.Community.Sources = sources
	if c.Community.CacheTTLMinutes <= 0 {
		c.Community.CacheTTLMinutes = defaultCommunityCacheTTLMinutes
	}
	if c.Community.MatchThreshold <= 0 {
		c.Community.MatchThreshold = defaultCommunityMatchThreshold
	}
}

func (c *Config) normalizeDetector() {
	if c.Detector.SampleIntervalMs <= 0 {
		c.Detector.SampleIntervalMs = defaultSampleIntervalMs
	}
	if c.Detector.SignalWindowSeconds <= 0 {
		c.Detector.SignalWindowSeconds = defaultSignalWindowSeconds
	}
	if c.Detector.FusionWindowSeconds <= 0 {
		c.Detector.FusionWindowSeconds = defaultFusionWindowSeconds
	}
	if c.Detector.SeekJumpSeconds <= 0 {
		c.Detector.SeekJumpSeconds = defaultSeekJumpSeconds
	}
	if c.Detector.InteractionGuardMs <= 0 {
		c.Detector.InteractionGuardMs = defaultInteractionGuardMs
	}
	if c.Detector.SeekGuardMs <= 0 {
		c.Detector.SeekGuardMs = defaultSeekGuardMs
	}
	if c.Detector.AudioSpikeRatio <= 0 {
		c.Detector.AudioSpikeRatio = defaultAudioSpikeRatio
	}
	if c.Detector.AudioFloor <= 0 {
		c.Detector.AudioFloor = defaultAudioFloor
	}
	if c.Detector.AudioWarmupSamples <= 0 {
		c.Detector.AudioWarmupSamples = defaultAudioWarmupSamples
	}
	if c.Detector.SubtitleCooldownMs <= 0 {
		c.Detector.SubtitleCooldownMs = defaultSubtitleCooldownMs
	}
	if c.Detector.VisualDeltaThreshold <= 0 {
		c.Detector.VisualDeltaThreshold = defaultVisualDeltaThreshold
	}
	if c.Detector.MaxCandidates <= 0 {
		c.Detector.MaxCandidates = defaultMaxCandidates
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
