package config

import (
	"errors"
	"fmt"

	"scenefilter/internal/autoapply"
	"scenefilter/internal/effects"
	"scenefilter/internal/segment"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateCommunity(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFilter() error {
	if _, ok := autoapply.ParseMode(c.Filter.SafeMode); !ok {
		return fmt.Errorf("filter.safe_mode %q is not one of OFF, LIGHT, MEDIUM, STRICT", c.Filter.SafeMode)
	}
	if c.Filter.ConfidenceThreshold < 0 || c.Filter.ConfidenceThreshold > 100 {
		return errors.New("filter.confidence_threshold must be between 0 and 100")
	}
	for category, action := range c.Filter.CategoryActions {
		if _, ok := segment.ParseType(category); !ok {
			return fmt.Errorf("filter.category_actions: unknown category %q", category)
		}
		if _, ok := effects.ParseAction(action); !ok {
			return fmt.Errorf("filter.category_actions.%s: unknown action %q", category, action)
		}
	}
	return nil
}

func (c *Config) validateCommunity() error {
	if c.Community.SyncEnabled && len(c.Community.Sources) == 0 {
		return errors.New("community.sources must be set when community.sync_enabled is true")
	}
	if c.Community.MatchThreshold < 0 || c.Community.MatchThreshold > 100 {
		return errors.New("community.match_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.AudioSpikeRatio <= 1 {
		return errors.New("detector.audio_spike_ratio must be greater than 1")
	}
	if c.Detector.VisualDeltaThreshold <= 0 || c.Detector.VisualDeltaThreshold >= 1 {
		return errors.New("detector.visual_delta_threshold must be between 0 and 1 exclusive")
	}
	if c.Detector.FusionWindowSeconds > c.Detector.SignalWindowSeconds {
		return errors.New("detector.fusion_window_seconds must not exceed detector.signal_window_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
