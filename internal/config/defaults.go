package config

const (
	defaultDataDir       = "~/.local/share/scenefilter"
	defaultLogDir        = "~/.local/share/scenefilter/logs"
	defaultBundledDBPath = "~/.local/share/scenefilter/segments.json"
	defaultAPIBind       = "127.0.0.1:7519"

	defaultSafeMode            = "MEDIUM"
	defaultConfidenceThreshold = 70
	defaultAutoSkipDelaySec    = 2

	defaultCommunityCacheTTLMinutes = 5
	defaultCommunityMatchThreshold  = 45

	defaultSampleIntervalMs     = 1200
	defaultSignalWindowSeconds  = 5.0
	defaultFusionWindowSeconds  = 2.2
	defaultSeekJumpSeconds      = 2.2
	defaultInteractionGuardMs   = 1800
	defaultSeekGuardMs          = 2200
	defaultAudioSpikeRatio      = 1.55
	defaultAudioFloor           = 55.0
	defaultAudioWarmupSamples   = 8
	defaultSubtitleCooldownMs   = 1200
	defaultVisualDeltaThreshold = 0.32
	defaultMaxCandidates        = 300

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

var defaultCommunitySources = []string{
	"https://raw.githubusercontent.com/SceneFilterCommunity/scenefilter-db/main/segments.json",
	"https://cdn.jsdelivr.net/gh/SceneFilterCommunity/scenefilter-db@main/segments.json",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			BundledDBPath: defaultBundledDBPath,
			APIBind:       defaultAPIBind,
		},
		Filter: Filter{
			Enabled:             true,
			SafeMode:            defaultSafeMode,
			ConfidenceThreshold: defaultConfidenceThreshold,
			AdaptiveMode:        true,
			AudioOnlyMode:       false,
			PreviewBeforeSkip:   true,
			AutoSkipDelaySec:    defaultAutoSkipDelaySec,
			DebugMode:           false,
			CategoryActions: map[string]string{
				"sexual": "skip",
				"nudity": "blur",
			},
		},
		Community: Community{
			SyncEnabled:     false,
			Sources:         append([]string(nil), defaultCommunitySources...),
			CacheTTLMinutes: defaultCommunityCacheTTLMinutes,
			MatchThreshold:  defaultCommunityMatchThreshold,
		},
		Detector: Detector{
			Enabled:              true,
			SampleIntervalMs:     defaultSampleIntervalMs,
			SignalWindowSeconds:  defaultSignalWindowSeconds,
			FusionWindowSeconds:  defaultFusionWindowSeconds,
			SeekJumpSeconds:      defaultSeekJumpSeconds,
			InteractionGuardMs:   defaultInteractionGuardMs,
			SeekGuardMs:          defaultSeekGuardMs,
			AudioSpikeRatio:      defaultAudioSpikeRatio,
			AudioFloor:           defaultAudioFloor,
			AudioWarmupSamples:   defaultAudioWarmupSamples,
			SubtitleCooldownMs:   defaultSubtitleCooldownMs,
			VisualDeltaThreshold: defaultVisualDeltaThreshold,
			MaxCandidates:        defaultMaxCandidates,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
